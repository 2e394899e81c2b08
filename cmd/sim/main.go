package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/Nearezz/toy-exchange/internal/domain"
	"github.com/Nearezz/toy-exchange/internal/idgen"
	"github.com/Nearezz/toy-exchange/internal/matching"
	"github.com/Nearezz/toy-exchange/internal/orderbook"
)

// sim drives one scenario against a fresh book.
type sim struct {
	engine *matching.Engine
	ids    idgen.Generator
	clock  idgen.Clock
	pause  time.Duration
}

func newSim(ids idgen.Generator, pause time.Duration) *sim {
	return &sim{
		engine: matching.NewEngine(orderbook.NewOrderBook()),
		ids:    ids,
		clock:  idgen.RealClock{},
		pause:  pause,
	}
}

func (s *sim) submit(side domain.Side, price, qty int64) []domain.Trade {
	order := domain.Order{
		OrderID:   s.ids.NextID(),
		Side:      side,
		Price:     price,
		Quantity:  qty,
		Timestamp: s.clock.Now().Unix(),
	}
	trades, err := s.engine.Submit(order)
	if err != nil {
		log.Fatalf("submit %s: %v", order.OrderID, err)
	}
	fmt.Printf("submitted %s %s %d x %d -> %d trade(s)\n", order.OrderID, side, price, qty, len(trades))
	return trades
}

func (s *sim) next(label string) {
	fmt.Printf("---- %s ----\n", label)
	if s.pause > 0 {
		time.Sleep(s.pause)
	}
}

func (s *sim) show() {
	top := s.engine.TopOfBook()
	fmt.Printf("Top of the book: bid=%s ask=%s\n", quote(top.Bid), quote(top.Ask))

	if trade, ok := s.engine.LastTrade(); ok {
		fmt.Printf("Last trade: %d x %d (taker %s, maker %s)\n",
			trade.Price, trade.Quantity, trade.TakerOrderID, trade.MakerOrderID)
	} else {
		fmt.Println("Last trade: none")
	}

	book := s.engine.Book()
	fmt.Println("Remaining levels:")
	printLevels("bids", book.RawBids())
	printLevels("asks", book.RawAsks())
}

func quote(q *domain.Quote) string {
	if q == nil {
		return "none"
	}
	return fmt.Sprintf("%d x %d", q.Price, q.Quantity)
}

func printLevels(name string, levels map[int64][]domain.Order) {
	prices := make([]int64, 0, len(levels))
	for p := range levels {
		prices = append(prices, p)
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i] > prices[j] })

	fmt.Printf("  %s:", name)
	if len(prices) == 0 {
		fmt.Print(" empty")
	}
	fmt.Println()
	for _, p := range prices {
		fmt.Printf("    %d:", p)
		for _, o := range levels[p] {
			fmt.Printf(" [%s qty=%d]", o.OrderID, o.Quantity)
		}
		fmt.Println()
	}
}

func addOrder(s *sim) {
	s.submit(domain.SideBuy, 100, 10)
	s.show()
}

func exactMatch(s *sim) {
	s.submit(domain.SideBuy, 100, 10)
	s.show()
	s.next("next order")
	s.submit(domain.SideSell, 100, 10)
	s.show()
}

func noCross(s *sim) {
	s.submit(domain.SideBuy, 100, 10)
	s.show()
	s.next("next order")
	s.submit(domain.SideBuy, 100, 10)
	s.show()
}

func pricePriority(s *sim) {
	s.submit(domain.SideBuy, 100, 10)
	s.submit(domain.SideBuy, 110, 10)
	s.next("showing book")
	s.show()
}

func lastTradePrice(s *sim) {
	s.submit(domain.SideBuy, 100, 10)
	s.next("after BUY")
	s.show()
	s.submit(domain.SideSell, 100, 10)
	s.next("after SELL")
	s.show()

	if trade, ok := s.engine.LastTrade(); ok {
		fmt.Println("last trade price:", trade.Price)
	}
}

var scenarios = []struct {
	name string
	run  func(*sim)
}{
	{"add", addOrder},
	{"exact", exactMatch},
	{"nocross", noCross},
	{"priority", pricePriority},
	{"lastprice", lastTradePrice},
}

func main() {
	scenario := flag.String("scenario", "all", "scenario to run: all, add, exact, nocross, priority, lastprice")
	pause := flag.Duration("pause", 0, "delay between steps")
	flag.Parse()

	// Ids keep counting across scenarios, like a process-wide generator.
	ids := &idgen.CounterGenerator{}

	ran := false
	for _, sc := range scenarios {
		if *scenario != "all" && *scenario != sc.name {
			continue
		}
		fmt.Printf("==== %s ====\n", sc.name)
		sc.run(newSim(ids, *pause))
		fmt.Println()
		ran = true
	}

	if !ran {
		fmt.Fprintf(os.Stderr, "unknown scenario %q\n", *scenario)
		flag.Usage()
		os.Exit(2)
	}
}
