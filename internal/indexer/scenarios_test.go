package indexer_test

import (
	"context"
	"math/rand/v2"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rickgao/dex-indexer/internal/indexer"
	"github.com/rickgao/dex-indexer/internal/ledger"
	"github.com/rickgao/dex-indexer/internal/model"
	"github.com/rickgao/dex-indexer/internal/router"
)

var _ = Describe("Engine", func() {
	var (
		now time.Time
		cfg indexer.Config
	)

	clock := func() time.Time { return now }

	BeforeEach(func() {
		now = time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
		cfg = indexer.DefaultConfig()
		cfg.PruneInterval = 0
	})

	Context("cold start with an empty ledger", func() {
		var engine *indexer.Engine

		BeforeEach(func() {
			engine = indexer.New(cfg, ledger.NewMemory(),
				indexer.WithClock(clock),
				indexer.WithRand(rand.New(rand.NewPCG(7, 7))),
			)
			Expect(engine.Start(context.Background())).To(Succeed())
			DeferCleanup(engine.Stop, context.Background())
		})

		It("generates 100 candles ending at the current minute", func() {
			candles := engine.Candles()
			Expect(candles).To(HaveLen(100))

			currentMinute := now.Truncate(time.Minute).Unix()
			Expect(candles[len(candles)-1].Time).To(Equal(currentMinute))
			Expect(candles[0].Time).To(Equal(currentMinute - 99*60))
		})

		It("keeps every candle within its high and low", func() {
			for _, c := range engine.Candles() {
				Expect(c.Low).To(BeNumerically("<=", c.Open))
				Expect(c.Low).To(BeNumerically("<=", c.Close))
				Expect(c.High).To(BeNumerically(">=", c.Open))
				Expect(c.High).To(BeNumerically(">=", c.Close))
				Expect(c.Volume).To(BeNumerically(">=", 0))
			}
		})

		It("reports the synthetic bootstrap", func() {
			stats := engine.Stats()
			Expect(stats.Synthetic).To(BeTrue())
			Expect(stats.Replayed).To(BeZero())
			Expect(engine.RecentTrades()).To(BeEmpty())
		})
	})

	Context("live events on a fresh engine", func() {
		var engine *indexer.Engine

		BeforeEach(func() {
			cfg.InitialPrice = 2450
			engine = indexer.New(cfg, nil, indexer.WithClock(clock))
		})

		It("opens a sync candle at the initial price", func() {
			Expect(engine.Apply(model.NewSyncEvent(2460, now.Unix()))).To(Succeed())

			Expect(engine.Candles()).To(ConsistOf(model.Candle{
				Time:   now.Truncate(time.Minute).Unix(),
				Open:   2450,
				High:   2460,
				Low:    2450,
				Close:  2460,
				Volume: 0,
			}))
		})

		It("prices a swap at the last sync within the same bucket", func() {
			Expect(engine.Apply(model.NewSyncEvent(2460, now.Unix()))).To(Succeed())
			Expect(engine.Apply(model.NewSwapEvent("0xfeed", model.SideBuy, "1.5", now.Unix()+5))).To(Succeed())

			candles := engine.Candles()
			Expect(candles).To(HaveLen(1))
			Expect(candles[0].Close).To(Equal(2460.0))
			Expect(candles[0].Volume).To(Equal(1.5))

			trades := engine.RecentTrades()
			Expect(trades).NotTo(BeEmpty())
			Expect(trades[0]).To(MatchTradeFields(model.SideBuy, "1.5", 2460))
		})
	})

	Context("market stats", func() {
		It("measures change from the open of the earliest candle", func() {
			cfg.InitialPrice = 100
			engine := indexer.New(cfg, nil, indexer.WithClock(clock))

			Expect(engine.Apply(model.NewSyncEvent(100, now.Unix()))).To(Succeed())
			Expect(engine.Apply(model.NewSyncEvent(110, now.Unix()+1))).To(Succeed())

			Expect(engine.Candles()).To(HaveLen(1))
			stats := engine.MarketStats()
			Expect(stats.Price).To(Equal(110.0))
			Expect(stats.Change24h).To(BeNumerically("~", 10, 1e-9))
		})
	})

	Context("running against a live event buffer", func() {
		It("applies routed events after the bootstrap and persists swaps", func() {
			events := router.NewGrowableBuffer[model.Event](8)
			mem := ledger.NewMemory()
			writer := ledger.NewWriter(ledger.WriterConfig{
				BatchSize:     1,
				FlushInterval: 10 * time.Millisecond,
				BufferSize:    16,
			}, mem, nil)
			Expect(writer.Start(context.Background())).To(Succeed())
			DeferCleanup(writer.Stop, context.Background())

			engine := indexer.New(cfg, mem,
				indexer.WithClock(clock),
				indexer.WithEvents(events),
				indexer.WithTradeSink(writer),
			)
			Expect(engine.Start(context.Background())).To(Succeed())
			DeferCleanup(engine.Stop, context.Background())

			events.Send(model.NewSwapEvent("0xbeef", model.SideSell, "0.25", now.Unix()))

			Eventually(engine.RecentTrades).Should(HaveLen(1))
			Eventually(mem.Len).Should(Equal(1))
			Expect(engine.RecentTrades()[0].Price).To(Equal(engine.Price()))
		})
	})
})

// MatchTradeFields matches a trade's side, amount and price.
func MatchTradeFields(side model.Side, amount string, price float64) OmegaMatcher {
	return And(
		WithTransform(func(t model.Trade) model.Side { return t.Side }, Equal(side)),
		WithTransform(func(t model.Trade) string { return t.Amount }, Equal(amount)),
		WithTransform(func(t model.Trade) float64 { return t.Price }, Equal(price)),
	)
}
