// Package timeline implements the timeline command: read-only queries over a
// mindchart SQLite database that print JSON.
package timeline

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	entrypoint "github.com/louisbranch/mindchart/internal/platform/cmd"
	"github.com/louisbranch/mindchart/internal/platform/config"
	apperrors "github.com/louisbranch/mindchart/internal/platform/errors"
	"github.com/louisbranch/mindchart/internal/platform/errors/i18n"
	"github.com/louisbranch/mindchart/internal/services/timeline/app"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/ordering"
	"github.com/louisbranch/mindchart/internal/services/timeline/storage/sqlite"
)

// Views supported by -view.
const (
	ViewTimeline = "timeline"
	ViewFiltered = "filtered"
	ViewState    = "state"
	ViewEvent    = "event"
	ViewSource   = "source"
)

// Config holds timeline command configuration.
type Config struct {
	DBPath   string `env:"MINDCHART_TIMELINE_DB_PATH"  envDefault:"data/mindchart.sqlite"`
	Timezone string `env:"MINDCHART_TIMELINE_TIMEZONE" envDefault:"UTC"`
	Locale   string `env:"MINDCHART_TIMELINE_LOCALE"   envDefault:"en-US"`

	PatientID string
	View      string
	AsOf      string
	Direction string
	Types     string
	From      string
	To        string
	Source    string
	EventID   string
}

// ParseConfig layers flags over environment defaults.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the mindchart SQLite database")
	fs.StringVar(&cfg.Timezone, "timezone", cfg.Timezone, "IANA zone that decides today's date")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for error messages (en-US, pt-BR)")
	fs.StringVar(&cfg.PatientID, "patient", "", "patient id")
	fs.StringVar(&cfg.View, "view", ViewTimeline, "view to print (timeline, filtered, state, event, source)")
	fs.StringVar(&cfg.AsOf, "as-of", "", "state as of YYYY-MM-DD (default: today)")
	fs.StringVar(&cfg.Direction, "direction", string(ordering.Ascending), "timeline direction (ascending, descending)")
	fs.StringVar(&cfg.Types, "types", "", "comma-separated event types for the filtered view")
	fs.StringVar(&cfg.From, "from", "", "filtered view start date YYYY-MM-DD, inclusive")
	fs.StringVar(&cfg.To, "to", "", "filtered view end date YYYY-MM-DD, inclusive")
	fs.StringVar(&cfg.Source, "source", "", "filtered view source kind (note, medication, psychiatric_history, appointment)")
	fs.StringVar(&cfg.EventID, "event", "", "event id for the event and source views")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the timeline command. Domain failures are printed to out as
// a localized {code, message} object and returned.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTimeline, func(ctx context.Context) error {
		err := execute(ctx, cfg, out, errOut)
		if err != nil && apperrors.IsDomain(err) {
			if writeErr := writeJSON(out, domainErrorView(err, cfg.Locale)); writeErr != nil {
				return errors.Join(err, writeErr)
			}
		}
		return err
	})
}

func execute(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	q, err := parseQuery(cfg)
	if err != nil {
		return err
	}
	loc, err := config.ParseLocation(cfg.Timezone)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	logger := slog.New(slog.NewTextHandler(errOut, nil))
	engine, err := app.New(store, nil, app.Options{Location: loc, Logger: logger})
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := q.run(ctx, engine)
	if err != nil {
		return err
	}
	return writeJSON(out, result)
}

// query is a validated -view invocation.
type query struct {
	view      string
	patientID string
	eventID   string
	asOf      event.Date
	filter    app.Filter
}

func parseQuery(cfg Config) (query, error) {
	q := query{
		view:      strings.ToLower(strings.TrimSpace(cfg.View)),
		patientID: strings.TrimSpace(cfg.PatientID),
		eventID:   strings.TrimSpace(cfg.EventID),
	}
	direction, err := ordering.ParseDirection(cfg.Direction)
	if err != nil {
		return query{}, err
	}
	q.filter.Direction = direction

	switch q.view {
	case ViewTimeline:
	case ViewState:
		if strings.TrimSpace(cfg.AsOf) != "" {
			if q.asOf, err = event.ParseDate(cfg.AsOf); err != nil {
				return query{}, fmt.Errorf("as-of: %w", err)
			}
		}
	case ViewFiltered:
		if q.filter.FromDate, err = optionalDate(cfg.From); err != nil {
			return query{}, fmt.Errorf("from: %w", err)
		}
		if q.filter.ToDate, err = optionalDate(cfg.To); err != nil {
			return query{}, fmt.Errorf("to: %w", err)
		}
		for _, name := range strings.Split(cfg.Types, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			typ, err := event.ParseType(name)
			if err != nil {
				return query{}, err
			}
			q.filter.EventTypes = append(q.filter.EventTypes, typ)
		}
		if q.filter.SourceKind, err = event.ParseSourceKind(cfg.Source); err != nil {
			return query{}, err
		}
	case ViewEvent, ViewSource:
		if q.eventID == "" {
			return query{}, errors.New("-event is required for the " + q.view + " view")
		}
	default:
		return query{}, fmt.Errorf("unknown view %q", cfg.View)
	}
	return q, nil
}

func optionalDate(value string) (event.Date, error) {
	if strings.TrimSpace(value) == "" {
		return event.Date{}, nil
	}
	return event.ParseDate(value)
}

func (q query) run(ctx context.Context, engine *app.Engine) (any, error) {
	switch q.view {
	case ViewTimeline:
		events, err := engine.Reader.GetFullTimeline(ctx, q.patientID, q.filter.Direction)
		if err != nil {
			return nil, err
		}
		return eventViews(events), nil
	case ViewFiltered:
		events, err := engine.Reader.GetFilteredTimeline(ctx, q.patientID, q.filter)
		if err != nil {
			return nil, err
		}
		return eventViews(events), nil
	case ViewState:
		if q.asOf.IsZero() {
			return engine.Resolver.GetCurrentState(ctx, q.patientID)
		}
		return engine.Resolver.GetHistoricalState(ctx, q.patientID, q.asOf)
	case ViewEvent:
		evt, err := engine.Reader.GetEvent(ctx, q.eventID)
		if err != nil {
			return nil, err
		}
		return newEventView(evt), nil
	case ViewSource:
		src, err := engine.Reader.GetEventSource(ctx, q.eventID)
		if err != nil {
			return nil, err
		}
		return newSourceView(src), nil
	default:
		return nil, fmt.Errorf("unknown view %q", q.view)
	}
}

func writeJSON(out io.Writer, value any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

type errorView struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func domainErrorView(err error, locale string) errorView {
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		return errorView{Code: string(apperrors.CodeUnknown), Message: err.Error()}
	}
	catalog := i18n.GetCatalog(locale)
	return errorView{
		Code:     string(domainErr.Code),
		Message:  catalog.Format(string(domainErr.Code), domainErr.Metadata),
		Metadata: domainErr.Metadata,
	}
}
