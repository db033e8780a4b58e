package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

const (
	ansiReset = "\033[0m"
	ansiBlue  = "\033[34m"
)

var levelStyle = map[string]struct{ tag, color string }{
	"trace": {"[TRC]", ""},
	"debug": {"[DBG]", "\033[36m"},
	"info":  {"[INF]", "\033[32m"},
	"warn":  {"[WRN]", "\033[33m"},
	"error": {"[ERR]", "\033[31m"},
	"fatal": {"[FTL]", "\033[35m"},
}

func paint(s, color string, noColor bool) string {
	if noColor || color == "" {
		return s
	}
	return color + s + ansiReset
}

// consoleWriter renders lines as "15:04:05 [ROU][INF] msg key:value", with
// the first three letters of the service as prefix.
func consoleWriter(out io.Writer, service string, noColor bool) zerolog.ConsoleWriter {
	prefix := ""
	if len(service) >= 3 {
		prefix = paint("["+strings.ToUpper(service[:3])+"]", ansiBlue, noColor)
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
		FormatLevel: func(i interface{}) string {
			lvl := strings.ToLower(fmt.Sprint(i))
			st, ok := levelStyle[lvl]
			if !ok {
				st.tag = "[" + strings.ToUpper(lvl) + "]"
			}
			return prefix + paint(st.tag, st.color, noColor)
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprintf("%s:", i)
		},
		FormatFieldValue: func(i interface{}) string {
			if i == nil {
				return ""
			}
			return fmt.Sprint(i)
		},
	}
}
