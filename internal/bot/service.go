// Package bot implements the chat command handlers: query resolution,
// paginated listings, and the select follow-up that resumes a search from
// its rendered message.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/devhub-tools/wikibot/internal/analytics"
	"github.com/devhub-tools/wikibot/internal/corpus"
	"github.com/devhub-tools/wikibot/internal/models"
	"github.com/devhub-tools/wikibot/internal/render"
	"github.com/devhub-tools/wikibot/internal/search"
	"github.com/devhub-tools/wikibot/internal/session"
)

// Response actions understood by the chat gateway.
const (
	ActionReply = "reply"
	ActionEdit  = "edit"
)

// User-facing message texts.
const (
	msgInvalidQuery  = "Invalid query received."
	msgNoResults     = "0 Results Found."
	msgNoPending     = "You have no pending search results to select from."
	msgUnknownTarget = "Unknown select target. Use `result` or `page`."
	msgUnknownField  = "Unknown subcommand. Search by `title` or `author`."
	msgStaleListing  = "That result could not be resolved. Please start a new search."
	msgSearchFailed  = "Something went wrong while searching. Please try again later."
	msgAckSelected   = "Result selected."
	msgAckPaged      = "Page updated."
)

// Lookup resolves one disambiguated title against the remote search API.
type Lookup interface {
	Lookup(ctx context.Context, title string) (*models.Record, []models.Record, error)
}

// Response describes what the gateway should do: post a new reply or edit a
// previously posted message. Ack carries the lightweight follow-up
// acknowledgment that accompanies an edit.
type Response struct {
	Action          string        `json:"action"`
	MessageID       string        `json:"message_id,omitempty"`
	EditedMessageID string        `json:"edited_message_id,omitempty"`
	Ephemeral       bool          `json:"ephemeral,omitempty"`
	Content         string        `json:"content,omitempty"`
	Ack             string        `json:"ack,omitempty"`
	Embed           *models.Embed `json:"embed,omitempty"`
}

// Service wires the corpora, the remote lookup, the selection tracker, and
// the analytics publisher behind the three inbound commands.
type Service struct {
	log     *slog.Logger
	snap    *corpus.Snapshot
	weights map[string]int
	lookup  Lookup
	tracker *session.Tracker
	events  *analytics.Publisher
	baseURL string
}

// New builds the command service. The weight table is validated against the
// loaded index up front: an unweighted category aborts startup instead of
// producing an undefined ranking on first use.
func New(log *slog.Logger, snap *corpus.Snapshot, weights map[string]int, lookup Lookup, tracker *session.Tracker, events *analytics.Publisher, baseURL string) (*Service, error) {
	if weights == nil {
		weights = search.DefaultWeights
	}
	if err := search.ValidateWeights(snap.Wiki, weights); err != nil {
		return nil, err
	}
	return &Service{
		log:     log,
		snap:    snap,
		weights: weights,
		lookup:  lookup,
		tracker: tracker,
		events:  events,
		baseURL: baseURL,
	}, nil
}

// HandleWiki resolves a wiki search command.
func (s *Service) HandleWiki(ctx context.Context, userID, query string, page int) Response {
	query = trimQuery(query)
	if query == "" {
		return userError(msgInvalidQuery)
	}

	results, err := search.Match(query, s.snap.Wiki, s.weights)
	if err != nil {
		s.log.Error("match query", slog.Any("err", err), slog.String("query", query))
		return userError(msgSearchFailed)
	}

	s.events.Publish(ctx, analytics.NewEvent(userID, "wiki", query, len(results), page))

	switch len(results) {
	case 0:
		return reply(msgNoResults)
	case 1:
		return s.wikiDetail(ctx, userID, query, results[0])
	default:
		return s.listing(userID, query, session.SourceWiki, "", s.baseURL, results, page)
	}
}

// HandleRSA resolves an RSA article search command.
func (s *Service) HandleRSA(ctx context.Context, userID, field, query string, page int) Response {
	af := search.ArticleField(field)
	if af != search.FieldTitle && af != search.FieldAuthor {
		return userError(msgUnknownField)
	}
	query = trimQuery(query)
	if query == "" {
		return userError(msgInvalidQuery)
	}

	matches, err := search.MatchArticles(query, s.snap.Articles, af)
	if err != nil {
		s.log.Error("match articles", slog.Any("err", err), slog.String("query", query))
		return userError(msgSearchFailed)
	}

	s.events.Publish(ctx, analytics.NewEvent(userID, "rsa_article", query, len(matches), page))

	switch len(matches) {
	case 0:
		return reply(msgNoResults)
	case 1:
		embed := render.ArticleDetail(matches[0])
		return replyEmbed(&embed)
	default:
		return s.listing(userID, query, session.SourceRSA, field, "", articleResults(matches), page)
	}
}

// HandleSelect resolves a select follow-up against the user's pending
// listing. target "result" drills into one row; target "page" re-renders
// the stored listing at another page.
func (s *Service) HandleSelect(ctx context.Context, userID, target string, index int) Response {
	p, ok := s.tracker.Get(userID)
	if !ok {
		return userError(msgNoPending)
	}

	switch target {
	case "page":
		return s.selectPage(userID, p, index)
	case "result":
		return s.selectResult(ctx, userID, p, index)
	default:
		return userError(msgUnknownTarget)
	}
}

func (s *Service) selectPage(userID string, p session.Pending, page int) Response {
	pg := search.Paginate(len(p.Results), page)
	window := p.Results[pg.Start:pg.End]

	lines := make([]string, 0, len(window))
	for _, r := range window {
		lines = append(lines, render.FormatResultLine(p.BaseURL, r))
	}
	embed := render.Listing(p.Query, lines, pg)

	p.Lines = lines
	p.Page = pg.Number
	s.tracker.Put(userID, p)

	return Response{
		Action:          ActionEdit,
		EditedMessageID: p.MessageRef,
		Embed:           &embed,
		Ack:             msgAckPaged,
	}
}

func (s *Service) selectResult(ctx context.Context, userID string, p session.Pending, index int) Response {
	if index < 1 || index > len(p.Lines) {
		return userError(fmt.Sprintf("Index must be between 1 and %d.", len(p.Lines)))
	}

	entry, err := resolveLine(p, index)
	if err != nil {
		s.log.Warn("re-extract result line", slog.Any("err", err), slog.String("user", userID))
		s.tracker.Clear(userID, p.Seq)
		return userError(msgStaleListing)
	}

	s.events.Publish(ctx, analytics.NewEvent(userID, "select", entry.Title, 1, index))

	var embed models.Embed
	switch p.Source {
	case session.SourceRSA:
		a, ok := corpus.FindArticle(s.snap.Articles, entry.Title)
		if !ok {
			s.tracker.Clear(userID, p.Seq)
			return userError(msgNoResults)
		}
		embed = render.ArticleDetail(a)
	default:
		rec, candidates, err := s.lookup.Lookup(ctx, entry.Title)
		if err != nil {
			s.log.Warn("remote lookup", slog.Any("err", err), slog.String("title", entry.Title))
			s.tracker.Clear(userID, p.Seq)
			return userError(msgNoResults)
		}
		if rec == nil && len(candidates) > 0 {
			// Ambiguous on a drill-down: the best-scored candidate wins.
			rec = &candidates[0]
		}
		if rec == nil {
			s.tracker.Clear(userID, p.Seq)
			return userError(msgNoResults)
		}
		embed = render.Detail(*rec)
	}

	s.tracker.Clear(userID, p.Seq)

	return Response{
		Action:          ActionEdit,
		EditedMessageID: p.MessageRef,
		Embed:           &embed,
		Ack:             msgAckSelected,
	}
}

// wikiDetail renders the single-result path: a remote lookup that either
// yields one detailed record or degrades to a score-ranked listing when the
// lookup is ambiguous. Transport failures degrade to the no-results reply.
func (s *Service) wikiDetail(ctx context.Context, userID, query string, r models.ScoredResult) Response {
	rec, candidates, err := s.lookup.Lookup(ctx, r.Title)
	if err != nil {
		s.log.Warn("remote lookup", slog.Any("err", err), slog.String("title", r.Title))
		return reply(msgNoResults)
	}

	if rec != nil {
		embed := render.Detail(*rec)
		return replyEmbed(&embed)
	}

	if len(candidates) == 0 {
		return reply(msgNoResults)
	}

	// Remote record URLs are already absolute, so no base prefix here.
	return s.listing(userID, query, session.SourceWiki, "", "", recordResults(candidates), 1)
}

// listing paginates results, renders the rows, and records the pending
// selection whenever more than one row is visible.
func (s *Service) listing(userID, query string, source session.Source, field, baseURL string, results []models.ScoredResult, page int) Response {
	pg := search.Paginate(len(results), page)
	window := results[pg.Start:pg.End]

	lines := make([]string, 0, len(window))
	for _, r := range window {
		lines = append(lines, render.FormatResultLine(baseURL, r))
	}
	embed := render.Listing(query, lines, pg)

	msgID := uuid.NewString()
	if len(window) > 1 {
		s.tracker.Put(userID, session.Pending{
			Lines:      lines,
			Results:    results,
			Source:     source,
			Query:      query,
			Field:      field,
			BaseURL:    baseURL,
			Page:       pg.Number,
			MessageRef: msgID,
		})
	}

	return Response{Action: ActionReply, MessageID: msgID, Embed: &embed}
}

// resolveLine maps a 1-based visible row index back to its entry. The stored
// structured results are authoritative; parsing the rendered line is the
// compatibility fallback for state that only carries text.
func resolveLine(p session.Pending, index int) (models.Entry, error) {
	if len(p.Results) > 0 {
		pg := search.Paginate(len(p.Results), p.Page)
		absolute := pg.Start + index - 1
		if absolute < len(p.Results) {
			r := p.Results[absolute]
			_, title := render.CategoryLabel(r)
			return models.Entry{Title: title, URL: p.BaseURL + r.URL}, nil
		}
	}
	return render.ParseResultLine(p.Lines[index-1])
}

func articleResults(articles []models.Article) []models.ScoredResult {
	out := make([]models.ScoredResult, 0, len(articles))
	for _, a := range articles {
		out = append(out, models.ScoredResult{Category: "RSA", Title: a.Title, URL: a.URL})
	}
	return out
}

func recordResults(records []models.Record) []models.ScoredResult {
	out := make([]models.ScoredResult, 0, len(records))
	for _, rec := range records {
		out = append(out, models.ScoredResult{Category: "other", Title: rec.Title, URL: rec.URL})
	}
	return out
}

func trimQuery(q string) string {
	return strings.TrimSpace(q)
}

func userError(text string) Response {
	return Response{Action: ActionReply, Ephemeral: true, Content: text}
}

func reply(text string) Response {
	return Response{Action: ActionReply, MessageID: uuid.NewString(), Content: text}
}

func replyEmbed(embed *models.Embed) Response {
	return Response{Action: ActionReply, MessageID: uuid.NewString(), Embed: embed}
}
