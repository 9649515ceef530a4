package analytics

import (
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kaisng/expense-tracker/internal/domain"
)

// Renderer turns a grouped numeric series into image bytes. Rendering is an
// external concern; the assembler only base64-encodes whatever comes back.
type Renderer interface {
	Render(spec ChartSpec) ([]byte, error)
}

// Envelope is the uniform analytics response shape.
type Envelope struct {
	Success       bool        `json:"success"`
	Message       string      `json:"message"`
	Data          interface{} `json:"data,omitempty"`
	Visualization string      `json:"visualization,omitempty"`
	Query         string      `json:"query,omitempty"`
	StartDate     string      `json:"start_date,omitempty"`
	EndDate       string      `json:"end_date,omitempty"`
}

// Assembler merges aggregation output with a rendered chart into the
// response envelope.
type Assembler struct {
	renderer Renderer
	log      zerolog.Logger
}

// NewAssembler creates an assembler. A nil renderer disables visualization.
func NewAssembler(renderer Renderer, log zerolog.Logger) *Assembler {
	return &Assembler{renderer: renderer, log: log}
}

// Assemble builds the envelope for a successful aggregation. A chart render
// failure drops the visualization but never fails the request.
func (a *Assembler) Assemble(query string, res *Result) Envelope {
	env := Envelope{
		Success: true,
		Message: res.Message,
		Data:    res.Data,
		Query:   query,
	}
	if res.Window.Start != nil {
		env.StartDate = res.Window.Start.Format("2006-01-02")
	}
	if res.Window.End != nil {
		env.EndDate = res.Window.End.Format("2006-01-02")
	}

	if res.Chart != nil && a.renderer != nil {
		png, err := a.renderer.Render(*res.Chart)
		if err != nil {
			a.log.Warn().Err(err).Str("chart_type", string(res.Chart.Type)).Msg("Chart rendering failed, returning data without visualization")
		} else {
			env.Visualization = base64.StdEncoding.EncodeToString(png)
		}
	}
	return env
}

// FormatAmount renders an amount with the currency prefix and two decimals.
func FormatAmount(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// DescribePeriod phrases a window for human-readable messages.
func DescribePeriod(w domain.TimeWindow) string {
	const layout = "2006-01-02"
	switch {
	case w.Start != nil && w.End != nil:
		return fmt.Sprintf("from %s to %s", w.Start.Format(layout), w.End.Format(layout))
	case w.Start != nil:
		return fmt.Sprintf("since %s", w.Start.Format(layout))
	case w.End != nil:
		return fmt.Sprintf("until %s", w.End.Format(layout))
	default:
		return "all time"
	}
}
