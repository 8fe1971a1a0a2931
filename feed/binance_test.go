package feed

import (
	"log/slog"
	"testing"

	"github.com/aditya-git16/lithos/events"
)

func testFeed() *Binance {
	symbols := map[string]events.SymbolID{"btcusdt": 0, "ETHUSDT": 1}
	return NewBinance("wss://example.invalid/stream", symbols, 2, 3,
		func(events.TopOfBookEvent) {}, slog.Default())
}

func TestParseBookTickerEnvelope(t *testing.T) {
	f := testFeed()
	msg := []byte(`{"stream":"btcusdt@bookTicker","data":` +
		`{"u":400900217,"s":"BTCUSDT","b":"64231.57","B":"1.250","a":"64231.58","A":"0.500"}}`)

	ev, ok := f.parse(msg)
	if !ok {
		t.Fatal("envelope frame not parsed")
	}
	if ev.SymbolID != 0 {
		t.Errorf("symbol = %d, want 0", ev.SymbolID)
	}
	if ev.BidPx != 6423157 || ev.AskPx != 6423158 {
		t.Errorf("px = %d/%d, want 6423157/6423158", ev.BidPx, ev.AskPx)
	}
	if ev.BidQty != 1250 || ev.AskQty != 500 {
		t.Errorf("qty = %d/%d, want 1250/500", ev.BidQty, ev.AskQty)
	}
	if ev.TsExchangeNs != 0 {
		t.Errorf("TsExchangeNs = %d, want 0 (absent)", ev.TsExchangeNs)
	}
	if ev.Flags != 0 {
		t.Errorf("Flags = %d, want 0", ev.Flags)
	}
}

func TestParseBookTickerRawStream(t *testing.T) {
	f := testFeed()
	msg := []byte(`{"u":1,"s":"ETHUSDT","b":"1825.05","B":"10.000","a":"1825.10","A":"2.000"}`)

	ev, ok := f.parse(msg)
	if !ok {
		t.Fatal("raw frame not parsed")
	}
	if ev.SymbolID != 1 {
		t.Errorf("symbol = %d, want 1", ev.SymbolID)
	}
	if ev.BidPx != 182505 || ev.AskPx != 182510 {
		t.Errorf("px = %d/%d, want 182505/182510", ev.BidPx, ev.AskPx)
	}
}

func TestParseBookTickerFuturesEventTime(t *testing.T) {
	f := testFeed()
	msg := []byte(`{"e":"bookTicker","u":1,"E":1700000000123,"s":"BTCUSDT",` +
		`"b":"100.00","B":"1.000","a":"100.01","A":"1.000"}`)

	ev, ok := f.parse(msg)
	if !ok {
		t.Fatal("futures frame not parsed")
	}
	if want := uint64(1700000000123) * 1_000_000; ev.TsExchangeNs != want {
		t.Errorf("TsExchangeNs = %d, want %d", ev.TsExchangeNs, want)
	}
}

func TestParseSkipsNonTickerFrames(t *testing.T) {
	f := testFeed()
	frames := [][]byte{
		[]byte(`{"result":null,"id":1}`), // subscribe ack
		[]byte(`{"stream":"btcusdt@bookTicker","data":{"s":"DOGEUSDT","b":"1","B":"1","a":"1","A":"1"}}`),
		[]byte(`{"stream":"btcusdt@bookTicker","data":{"s":"BTCUSDT","b":"x","B":"1","a":"1","A":"1"}}`),
		[]byte(`not json`),
		[]byte(`{}`),
	}
	for _, msg := range frames {
		if _, ok := f.parse(msg); ok {
			t.Errorf("frame accepted: %s", msg)
		}
	}
}

func BenchmarkParseBookTicker(b *testing.B) {
	f := testFeed()
	msg := []byte(`{"stream":"btcusdt@bookTicker","data":` +
		`{"u":400900217,"s":"BTCUSDT","b":"64231.57","B":"1.250","a":"64231.58","A":"0.500"}}`)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := f.parse(msg); !ok {
			b.Fatal("parse failed")
		}
	}
}
