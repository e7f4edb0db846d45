package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/rmayhew/ddq/apperr"
)

// writeJSON renders a successful upstream body to w. The upstream
// contract is JSON, so a non-JSON body is an internal error rather than
// something to forward; an empty 2xx body renders as {}.
func writeJSON(w io.Writer, body []byte, compact bool) error {
	if strings.TrimSpace(string(body)) == "" {
		body = []byte("{}")
	}
	if !json.Valid(body) {
		return apperr.Internalf("Datadog API returned a non-JSON body where JSON was expected")
	}

	var buf bytes.Buffer
	var err error
	if compact {
		err = json.Compact(&buf, body)
	} else {
		err = json.Indent(&buf, body, "", "  ")
	}
	if err != nil {
		return apperr.Internalf("formatting response body: %v", err)
	}
	buf.WriteByte('\n')

	if _, err := w.Write(buf.Bytes()); err != nil {
		return apperr.Internalf("writing response body: %v", err)
	}
	return nil
}
