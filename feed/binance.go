package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aditya-git16/lithos/events"
)

// Binance subscribes to bookTicker streams and publishes decoded
// top-of-book records. One Binance feed is the sole producer upstream.
type Binance struct {
	url     string
	symbols map[string]events.SymbolID // exchange ticker -> symbol id
	pxDP    uint
	qtyDP   uint
	publish Publish
	log     *slog.Logger
}

// NewBinance builds a bookTicker feed. symbols maps exchange tickers
// (e.g. "BTCUSDT") to configured symbol ids; pxDP/qtyDP are the
// fixed-point scale factors applied to prices and quantities.
func NewBinance(url string, symbols map[string]events.SymbolID, pxDP, qtyDP uint, publish Publish, log *slog.Logger) *Binance {
	up := make(map[string]events.SymbolID, len(symbols))
	for ticker, id := range symbols {
		up[strings.ToUpper(ticker)] = id
	}
	return &Binance{
		url:     url,
		symbols: up,
		pxDP:    pxDP,
		qtyDP:   qtyDP,
		publish: publish,
		log:     log,
	}
}

// Run connects and reads until ctx is cancelled, reconnecting on error.
func (f *Binance) Run(ctx context.Context) error {
	return runConnectionLoop(ctx, f.log, "binance", f.connect)
}

func (f *Binance) connect(ctx context.Context) error {
	c, _, err := websocket.Dial(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer c.CloseNow()
	c.SetReadLimit(1 << 20)

	streams := make([]string, 0, len(f.symbols))
	for ticker := range f.symbols {
		streams = append(streams, strings.ToLower(ticker)+"@bookTicker")
	}
	sub := map[string]any{
		"method": "SUBSCRIBE",
		"params": streams,
		"id":     1,
	}
	if err := wsjson.Write(ctx, c, sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	f.log.Info("binance connected", "url", f.url, "streams", streams)

	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			return err
		}
		if ev, ok := f.parse(data); ok {
			f.publish(ev)
		}
	}
}

// parse extracts a record from one bookTicker frame. Handles both the
// combined-stream envelope ({"stream":...,"data":{...}}) and the raw
// stream shape; anything else (subscribe acks, unknown symbols,
// unparsable numbers) is skipped.
func (f *Binance) parse(data []byte) (events.TopOfBookEvent, bool) {
	body := gjson.GetBytes(data, "data")
	if !body.Exists() {
		body = gjson.ParseBytes(data)
	}

	sym := body.Get("s")
	if !sym.Exists() {
		return events.TopOfBookEvent{}, false
	}
	id, ok := f.symbols[sym.String()]
	if !ok {
		return events.TopOfBookEvent{}, false
	}

	bidPx, ok1 := ParseFixed(body.Get("b").String(), f.pxDP)
	bidQty, ok2 := ParseFixed(body.Get("B").String(), f.qtyDP)
	askPx, ok3 := ParseFixed(body.Get("a").String(), f.pxDP)
	askQty, ok4 := ParseFixed(body.Get("A").String(), f.qtyDP)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return events.TopOfBookEvent{}, false
	}

	// Spot bookTicker carries no event time; futures streams do ("E",
	// milliseconds). Zero means absent.
	var tsExch uint64
	if e := body.Get("E"); e.Exists() {
		tsExch = uint64(e.Int()) * 1_000_000
	}

	return events.TopOfBookEvent{
		SymbolID:     id,
		BidPx:        bidPx,
		AskPx:        askPx,
		BidQty:       bidQty,
		AskQty:       askQty,
		TsExchangeNs: tsExch,
	}, true
}
