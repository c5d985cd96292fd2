package http

import (
	"log"

	"github.com/fatih/color"
	"github.com/indigo-web/liso/http"
	"github.com/indigo-web/liso/http/status"
)

// accessLog writes a line per response, colored by the status class.
type accessLog struct {
	logger                *log.Logger
	success, client, fail *color.Color
}

func newAccessLog(logger *log.Logger, colored bool) accessLog {
	a := accessLog{
		logger:  logger,
		success: color.New(color.FgGreen),
		client:  color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
	}

	for _, c := range []*color.Color{a.success, a.client, a.fail} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return a
}

func (a accessLog) Log(req *http.Request, code status.Code) {
	if a.logger == nil {
		return
	}

	var c *color.Color
	switch {
	case code >= 500:
		c = a.fail
	case code >= 400:
		c = a.client
	default:
		c = a.success
	}

	a.logger.Print(c.Sprintf("%s %s %d", orDash(req.MethodRaw), orDash(req.URI), code))
}

// orDash substitutes the field that didn't make it out of the parser.
func orDash(field string) string {
	if len(field) == 0 {
		return "-"
	}

	return field
}
