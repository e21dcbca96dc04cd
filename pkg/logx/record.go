package logx

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/valyala/fastjson"
)

// LoggerFieldName is the JSON key carrying the originating logger name.
const LoggerFieldName = "logger"

// Record is one accepted log call, as delivered to sinks.
//
// A Record is a plain value: observers that keep it beyond the callback keep a
// copy. Fields holds every key not mapped to a dedicated attribute, with
// strings unquoted and other values as JSON text.
type Record struct {
	ID      uuid.UUID
	Time    time.Time
	Level   Level
	Message string
	Logger  string
	Caller  string
	Err     string
	Fields  map[string]string

	// raw is the engine's JSON line; only valid during the sink call.
	raw []byte
}

// HasErr reports whether the record carries an error payload.
func (r Record) HasErr() bool { return r.Err != "" }

// JSON returns the record as a JSON line (with trailing newline).
func (r Record) JSON() []byte {
	if len(r.raw) > 0 {
		return r.raw
	}
	var buf bytes.Buffer
	zl := zerolog.New(&buf)
	e := zl.WithLevel(r.Level.zerolog())
	if !r.Time.IsZero() {
		e.Time(zerolog.TimestampFieldName, r.Time)
	}
	if r.Logger != "" {
		e.Str(LoggerFieldName, r.Logger)
	}
	if r.Caller != "" {
		e.Str(zerolog.CallerFieldName, r.Caller)
	}
	if r.Err != "" {
		e.Str(zerolog.ErrorFieldName, r.Err)
	}
	for k, v := range r.Fields {
		e.Str(k, v)
	}
	e.Msg(r.Message)
	return buf.Bytes()
}

var parsers fastjson.ParserPool

// decodeRecord turns one zerolog JSON line into a Record. The level reported
// by zerolog's LevelWriter wins over the encoded one.
func decodeRecord(p []byte, level zerolog.Level) (Record, error) {
	pr := parsers.Get()
	defer parsers.Put(pr)

	v, err := pr.ParseBytes(p)
	if err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	obj, err := v.Object()
	if err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}

	rec := Record{ID: uuid.New(), raw: p}
	encodedLevel := zerolog.NoLevel
	obj.Visit(func(key []byte, fv *fastjson.Value) {
		switch k := string(key); k {
		case zerolog.TimestampFieldName:
			rec.Time = decodeTime(fv)
		case zerolog.LevelFieldName:
			if l, err := zerolog.ParseLevel(string(fv.GetStringBytes())); err == nil {
				encodedLevel = l
			}
		case zerolog.MessageFieldName:
			rec.Message = string(fv.GetStringBytes())
		case zerolog.ErrorFieldName:
			rec.Err = valueText(fv)
		case zerolog.CallerFieldName:
			rec.Caller = valueText(fv)
		case LoggerFieldName:
			rec.Logger = valueText(fv)
		default:
			if rec.Fields == nil {
				rec.Fields = make(map[string]string)
			}
			rec.Fields[k] = valueText(fv)
		}
	})

	if level == zerolog.NoLevel {
		level = encodedLevel
	}
	rec.Level = fromZerolog(level)
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}
	return rec, nil
}

func valueText(v *fastjson.Value) string {
	if v.Type() == fastjson.TypeString {
		return string(v.GetStringBytes())
	}
	return v.String()
}

func decodeTime(v *fastjson.Value) time.Time {
	switch v.Type() {
	case fastjson.TypeString:
		t, err := time.Parse(zerolog.TimeFieldFormat, string(v.GetStringBytes()))
		if err == nil {
			return t
		}
		if t, err := time.Parse(time.RFC3339Nano, string(v.GetStringBytes())); err == nil {
			return t
		}
	case fastjson.TypeNumber:
		n, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			return time.Time{}
		}
		switch zerolog.TimeFieldFormat {
		case zerolog.TimeFormatUnixMs:
			return time.UnixMilli(n)
		case zerolog.TimeFormatUnixMicro:
			return time.UnixMicro(n)
		case zerolog.TimeFormatUnixNano:
			return time.Unix(0, n)
		default:
			return time.Unix(n, 0)
		}
	}
	return time.Time{}
}
