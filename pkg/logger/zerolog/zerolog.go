// Package zerolog backs logger.Logger with rs/zerolog.
package zerolog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/goterm/term"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// New builds a logger writing to stdout. jsonFormat emits raw zerolog JSON;
// otherwise lines are padded and, when colored, highlighted for terminals.
func New(level, dateTimeLayout string, colored, jsonFormat bool) (*ZerologAdapter, error) {
	return NewWithWriter(os.Stdout, level, dateTimeLayout, colored, jsonFormat)
}

// NewWithWriter is New writing to out
func NewWithWriter(out io.Writer, level, dateTimeLayout string, colored, jsonFormat bool) (*ZerologAdapter, error) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(logLevel)

	writer := out
	if !jsonFormat {
		console := zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    !colored,
			TimeFormat: dateTimeLayout,
		}
		if colored {
			console.FormatLevel = formatLevel
			console.FormatMessage = formatMessage
			console.FormatCaller = formatCaller
			console.FormatTimestamp = func(i interface{}) string {
				return formatTimestamp(i, dateTimeLayout)
			}
		}
		writer = console
	}

	logger := zerolog.New(writer).
		With().
		Timestamp().
		CallerWithSkipFrameCount(3).
		Logger()

	return NewAdapter(&logger), nil
}

// NewNop returns a logger that discards everything
func NewNop() *ZerologAdapter {
	logger := zerolog.Nop()
	return NewAdapter(&logger)
}

func formatLevel(i interface{}) string {
	levelStr, ok := i.(string)
	if !ok {
		return "UNKNOWN"
	}

	levelColor := getLevelColor(levelStr)
	return levelColor
}

func getLevelColor(level string) string {
	switch level {
	case zerolog.LevelTraceValue:
		return term.Cyanf("[TRC]")
	case zerolog.LevelDebugValue:
		return term.Cyanf("[DBG]")
	case zerolog.LevelInfoValue:
		return term.Greenf("[INF]")
	case zerolog.LevelWarnValue:
		return term.Yellowf("[WAR]")
	case zerolog.LevelPanicValue:
		return term.Redf("[PAN]")
	case zerolog.LevelFatalValue:
		return term.Redf("[FTL]")
	case zerolog.LevelErrorValue:
		return term.Redf("[ERR]")
	default:
		return term.Whitef("[UNK]")
	}
}

func formatMessage(i interface{}) string {
	const maxSize = 80

	msg, ok := i.(string)
	if !ok || len(msg) == 0 {
		return ">"
	}

	// Truncate message ifis greaten of max size
	if len(msg) > maxSize {
		msg = msg[:maxSize]
	}

	if len(msg) < maxSize {
		msg += strings.Repeat(" ", maxSize-len(msg))
	}

	return term.Whitef("> %s", msg)
}

func formatCaller(i interface{}) string {
	const maxFileSize = 18
	const maxLineSize = 4

	fname, ok := i.(string)
	if !ok || len(fname) == 0 {
		return ""
	}

	caller := filepath.Base(fname)
	callerSplit := strings.Split(caller, ":")
	if len(callerSplit) != 2 {
		return caller
	}

	fileBase := callerSplit[0]
	line := callerSplit[1]

	// Truncate or pad the fileBase to ensure it has maxFileSize length
	if len(fileBase) > maxFileSize {
		fileBase = fileBase[:maxFileSize]
	} else {
		fileBase = fmt.Sprintf("%-*s", maxFileSize, fileBase)
	}

	// Ensure line number has a fixed size (truncate left if necessary)
	if len(line) > maxLineSize {
		line = line[len(line)-maxLineSize:]
	} else {
		line = fmt.Sprintf("%*s", maxLineSize, line)
	}

	// Combine the padded fileBase with the line number
	caller = fmt.Sprintf("%s:%s", fileBase, line)

	return term.Yellowf("[%s]", caller)
}

func formatTimestamp(i interface{}, timeLayout string) string {
	strTime, ok := i.(string)
	if !ok {
		return term.Cyanf("[%s]", i)
	}

	ts, err := time.ParseInLocation(time.RFC3339, strTime, time.Local)
	if err != nil {
		strTime = i.(string)
	} else {
		strTime = ts.In(time.Local).Format(timeLayout)
	}

	return term.Cyanf("[%s]", strTime)
}
