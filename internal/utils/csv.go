package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cryptoJournal/internal/domain"
)

// TradeCSVHeader is the column layout used for trade import and export.
var TradeCSVHeader = []string{
	"id", "date", "end_date", "pair", "amount", "entry_price", "exit_price",
	"trade_type", "status", "strategy", "notes",
}

// WriteTradesCSV writes trades in TradeCSVHeader layout. Active trades leave the exit columns empty.
func WriteTradesCSV(w io.Writer, trades []*domain.Trade) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(TradeCSVHeader); err != nil {
		return err
	}

	for _, t := range trades {
		endDate, exitPrice := "", ""
		if t.CloseTime != nil {
			endDate = t.CloseTime.Format(time.RFC3339)
		}
		if t.ExitPrice != nil {
			exitPrice = strconv.FormatFloat(*t.ExitPrice, 'f', -1, 64)
		}
		if err := writer.Write([]string{
			strconv.FormatInt(t.ID, 10),
			t.OpenTime.Format(time.RFC3339),
			endDate,
			t.Pair,
			strconv.FormatFloat(t.Quantity, 'f', -1, 64),
			strconv.FormatFloat(t.EntryPrice, 'f', -1, 64),
			exitPrice,
			string(t.Direction),
			string(t.Status),
			t.Strategy,
			t.Notes,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTradesToCSV writes trades to a file, creating or truncating it.
func WriteTradesToCSV(trades []*domain.Trade, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteTradesCSV(file, trades)
}

// ReadTradesCSV parses trades written by WriteTradesCSV. Columns are matched by header name,
// so extra or reordered columns are accepted. Rows that cannot be parsed are skipped and
// reported in the returned (joined) error alongside the rows that did parse.
func ReadTradesCSV(r io.Reader) ([]*domain.Trade, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "pair", "amount", "entry_price", "trade_type"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv is missing column %q", required)
		}
	}

	var (
		trades []*domain.Trade
		errs   []error
		line   = 1
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		trade, err := parseTradeRecord(record, cols)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		trades = append(trades, trade)
	}
	return trades, errors.Join(errs...)
}

// ReadTradesFromCSV reads trades from a file.
func ReadTradesFromCSV(filename string) ([]*domain.Trade, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadTradesCSV(file)
}

func parseTradeRecord(record []string, cols map[string]int) (*domain.Trade, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	trade := &domain.Trade{
		Pair:      field("pair"),
		Direction: domain.Direction(strings.ToLower(field("trade_type"))),
		Status:    domain.TradeStatus(strings.ToLower(field("status"))),
		Strategy:  field("strategy"),
		Notes:     field("notes"),
	}

	var err error
	if v := field("id"); v != "" {
		if trade.ID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", v, err)
		}
	}
	if trade.OpenTime, err = parseTime(field("date")); err != nil {
		return nil, fmt.Errorf("invalid date: %w", err)
	}
	if v := field("end_date"); v != "" {
		closeTime, err := parseTime(v)
		if err != nil {
			return nil, fmt.Errorf("invalid end_date: %w", err)
		}
		trade.CloseTime = &closeTime
	}
	if trade.Quantity, err = strconv.ParseFloat(field("amount"), 64); err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	if trade.EntryPrice, err = strconv.ParseFloat(field("entry_price"), 64); err != nil {
		return nil, fmt.Errorf("invalid entry_price: %w", err)
	}
	if v := field("exit_price"); v != "" {
		exitPrice, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid exit_price: %w", err)
		}
		trade.ExitPrice = &exitPrice
	}
	if trade.Status == "" {
		trade.NormalizeStatus()
	}
	return trade, nil
}

// parseTime accepts RFC3339 timestamps and the shorter layouts people type by hand.
func parseTime(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", v)
}

// WriteKlinesCSV writes candles with one row per kline.
func WriteKlinesCSV(w io.Writer, klines []*domain.Kline) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"open_time", "close_time", "symbol", "interval", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, k := range klines {
		if err := writer.Write([]string{
			k.OpenTime.Format(time.RFC3339),
			k.CloseTime.Format(time.RFC3339),
			k.Symbol,
			k.Interval,
			strconv.FormatFloat(k.Open, 'f', -1, 64),
			strconv.FormatFloat(k.High, 'f', -1, 64),
			strconv.FormatFloat(k.Low, 'f', -1, 64),
			strconv.FormatFloat(k.Close, 'f', -1, 64),
			strconv.FormatFloat(k.Volume, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteKlinesToCSV writes candles to a file, creating parent directories as needed.
func WriteKlinesToCSV(klines []*domain.Kline, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteKlinesCSV(file, klines)
}
