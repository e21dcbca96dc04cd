package logx

import (
	"strings"

	"github.com/rs/zerolog"
)

// Level is the ordered record severity. Values line up with zerolog's levels.
type Level int8

const (
	LevelDebug Level = Level(zerolog.DebugLevel)
	LevelInfo  Level = Level(zerolog.InfoLevel)
	LevelWarn  Level = Level(zerolog.WarnLevel)
	LevelError Level = Level(zerolog.ErrorLevel)
	LevelFatal Level = Level(zerolog.FatalLevel)
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "LEVEL(" + zerolog.Level(l).String() + ")"
	}
}

func (l Level) zerolog() zerolog.Level { return zerolog.Level(l) }

// fromZerolog clamps zerolog's trace/panic levels into [Debug, Fatal].
func fromZerolog(l zerolog.Level) Level {
	switch {
	case l == zerolog.NoLevel:
		return LevelInfo
	case l < zerolog.DebugLevel:
		return LevelDebug
	case l > zerolog.FatalLevel:
		return LevelFatal
	default:
		return Level(l)
	}
}

// ParseLevel maps a level name to a Level, returning def for unknown input.
// "ALL" is accepted as an alias for DEBUG.
func ParseLevel(s string, def Level) Level {
	l, ok := LookupLevel(s)
	if !ok {
		return def
	}
	return l
}

// LookupLevel is ParseLevel with an explicit ok result.
func LookupLevel(s string) (Level, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "DEBUG", "ALL":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return 0, false
	}
}

// Range is an inclusive [Min, Max] level filter.
type Range struct {
	Min Level
	Max Level
}

var (
	// AllLevels accepts every record.
	AllLevels = Range{Min: LevelDebug, Max: LevelFatal}
	// VerboseRange is the file sink range when debug logging is enabled.
	VerboseRange = AllLevels
	// QuietRange is the file sink range when debug logging is disabled.
	QuietRange = Range{Min: LevelError, Max: LevelFatal}
)

func (r Range) Accepts(l Level) bool { return l >= r.Min && l <= r.Max }

func (r Range) String() string { return "[" + r.Min.String() + ", " + r.Max.String() + "]" }
