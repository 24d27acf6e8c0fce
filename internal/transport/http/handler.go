package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/randomtoy/linked-chess/internal/domain/game"
	"github.com/randomtoy/linked-chess/internal/domain/rules"
	"github.com/randomtoy/linked-chess/internal/ports"
	"github.com/randomtoy/linked-chess/internal/rdf"
	"github.com/randomtoy/linked-chess/internal/usecase"
)

const (
	maxDocumentBytes = 1 << 20
	defaultListLimit = 50
)

// halfMoveJSON is the wire representation of a recorded half-move.
type halfMoveJSON struct {
	SAN      string `json:"san"`
	Resource string `json:"resource"`
}

// gameJSON is the wire representation of a resolved game as one viewer sees it.
type gameJSON struct {
	Game           string        `json:"game"`
	Viewer         string        `json:"viewer"`
	Opponent       string        `json:"opponent"`
	ViewerColor    string        `json:"viewer_color"`
	OpponentColor  string        `json:"opponent_color"`
	Turn           string        `json:"turn"`
	FEN            string        `json:"fen"`
	StartPosition  string        `json:"start_position,omitempty"`
	Name           *string       `json:"name"`
	RealTime       bool          `json:"real_time"`
	InCheckmate    bool          `json:"in_checkmate"`
	ResignedBy     *string       `json:"resigned_by"`
	Finished       bool          `json:"finished"`
	OpponentsTurn  bool          `json:"opponents_turn"`
	LastMove       *halfMoveJSON `json:"last_move"`
	LastViewerMove *halfMoveJSON `json:"last_viewer_move"`
}

func toHalfMoveJSON(m *game.HalfMove) *halfMoveJSON {
	if m == nil {
		return nil
	}
	return &halfMoveJSON{SAN: m.SAN, Resource: m.Resource}
}

func toGameJSON(st *game.State) *gameJSON {
	out := &gameJSON{
		Game:           st.URL(),
		Viewer:         st.Viewer(),
		Opponent:       st.Opponent(),
		ViewerColor:    st.ViewerColor().String(),
		OpponentColor:  st.OpponentColor().String(),
		Turn:           st.Turn().String(),
		FEN:            st.FEN(),
		StartPosition:  st.StartPosition(),
		RealTime:       st.IsRealTime(),
		InCheckmate:    st.InCheckmate(),
		Finished:       st.IsFinished(),
		OpponentsTurn:  st.IsOpponentsTurn(),
		LastMove:       toHalfMoveJSON(st.LastMove()),
		LastViewerMove: toHalfMoveJSON(st.LastViewerMove()),
	}
	if name, ok := st.Name(); ok {
		out.Name = &name
	}
	if by := st.ResignedBy(); by != "" {
		out.ResignedBy = &by
	}
	return out
}

// deltaJSON reports what was written and announced.
type deltaJSON struct {
	Resource     string `json:"resource"`
	Document     string `json:"document"`
	Update       string `json:"update"`
	Notification string `json:"notification"`
}

func toDeltaJSON(d *game.Delta) *deltaJSON {
	return &deltaJSON{
		Resource:     d.Resource,
		Document:     d.Document(),
		Update:       d.Update(),
		Notification: d.Notification(),
	}
}

// Services are the usecases and stores the handlers serve.
type Services struct {
	Creator  *usecase.GameCreator
	Getter   *usecase.GameGetter
	Player   *usecase.MovePlayer
	Resigner *usecase.Resigner
	Inbox    *usecase.InboxService

	// Documents and Publisher back the hosted pod.
	Documents ports.DocumentStore
	Publisher ports.UpdatePublisher
}

// Handlers holds all usecase dependencies.
type Handlers struct {
	svc        Services
	publicBase string
	now        func() time.Time
}

// NewHandlers serves pod and inbox paths as publicBase + request path.
func NewHandlers(svc Services, publicBase string) *Handlers {
	return &Handlers{svc: svc, publicBase: strings.TrimRight(publicBase, "/"), now: time.Now}
}

func clientToken(c echo.Context) string { return c.Request().Header.Get("X-Client-Token") }

func (h *Handlers) resourceURL(c echo.Context) string {
	return h.publicBase + c.Request().URL.Path
}

func (h *Handlers) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) handleCreateGame(c echo.Context) error {
	var body struct {
		Game          string `json:"game"`
		Viewer        string `json:"viewer"`
		Opponent      string `json:"opponent"`
		Color         string `json:"color"`
		Name          string `json:"name"`
		StartPosition string `json:"start_position"`
		RealTime      bool   `json:"real_time"`
		MoveBase      string `json:"move_base"`
	}
	if err := c.Bind(&body); err != nil {
		return writeErr(c, err)
	}

	color := rules.NoColor
	if body.Color != "" {
		parsed, err := rules.ParseColor(body.Color)
		if err != nil {
			return problem(c, http.StatusBadRequest, "invalid-request", err.Error())
		}
		color = parsed
	}

	st, err := h.svc.Creator.Create(c.Request().Context(), c.RealIP(), clientToken(c), usecase.CreateGameRequest{
		Game:          body.Game,
		Viewer:        body.Viewer,
		Opponent:      body.Opponent,
		Color:         color,
		Name:          body.Name,
		StartPosition: body.StartPosition,
		RealTime:      body.RealTime,
		MoveBase:      body.MoveBase,
	})
	if err != nil {
		return writeErr(c, err)
	}

	c.Response().Header().Set("Location", st.URL())
	return c.JSON(http.StatusCreated, toGameJSON(st))
}

func (h *Handlers) handleGetGame(c echo.Context) error {
	st, err := h.svc.Getter.GetGame(c.Request().Context(), c.RealIP(), clientToken(c),
		c.QueryParam("game"), c.QueryParam("viewer"))
	if err != nil {
		return writeErr(c, err)
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, toGameJSON(st))
}

func (h *Handlers) handlePromotion(c echo.Context) error {
	from, to := c.QueryParam("from"), c.QueryParam("to")
	if _, err := rules.ParseSquare(from); err != nil {
		return writeErr(c, err)
	}
	if _, err := rules.ParseSquare(to); err != nil {
		return writeErr(c, err)
	}

	ok, err := h.svc.Getter.IsPromotion(c.Request().Context(), c.RealIP(), clientToken(c),
		c.QueryParam("game"), c.QueryParam("viewer"), from, to)
	if err != nil {
		return writeErr(c, err)
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, map[string]bool{"promotion": ok})
}

func (h *Handlers) handlePlayMove(c echo.Context) error {
	var body struct {
		Game     string `json:"game"`
		Viewer   string `json:"viewer"`
		MoveBase string `json:"move_base"`
		// SAN, or coordinate notation when sloppy is set.
		Move   string `json:"move"`
		Sloppy bool   `json:"sloppy"`
	}
	if err := c.Bind(&body); err != nil {
		return writeErr(c, err)
	}

	res, err := h.svc.Player.Play(c.Request().Context(), c.RealIP(), clientToken(c), usecase.PlayMoveRequest{
		Game:     body.Game,
		Viewer:   body.Viewer,
		MoveBase: body.MoveBase,
		Move:     body.Move,
		Sloppy:   body.Sloppy,
	})
	if err != nil {
		return writeErr(c, err)
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, map[string]any{
		"accepted": true,
		"notified": res.Notified,
		"delta":    toDeltaJSON(res.Delta),
		"game":     toGameJSON(res.State),
	})
}

func (h *Handlers) handleResign(c echo.Context) error {
	var body struct {
		Game     string `json:"game"`
		Viewer   string `json:"viewer"`
		MoveBase string `json:"move_base"`
	}
	if err := c.Bind(&body); err != nil {
		return writeErr(c, err)
	}

	res, err := h.svc.Resigner.Resign(c.Request().Context(), c.RealIP(), clientToken(c), usecase.ResignRequest{
		Game:     body.Game,
		Viewer:   body.Viewer,
		MoveBase: body.MoveBase,
	})
	if err != nil {
		return writeErr(c, err)
	}

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, map[string]any{
		"accepted": true,
		"notified": res.Notified,
		"delta":    toDeltaJSON(res.Delta),
		"game":     toGameJSON(res.State),
	})
}

func (h *Handlers) handleGetDocument(c echo.Context) error {
	doc, err := h.svc.Documents.Get(c.Request().Context(), h.resourceURL(c))
	if err != nil {
		return writeErr(c, err)
	}
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Last-Modified", doc.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.Blob(http.StatusOK, doc.ContentType, doc.Body)
}

// handlePutDocument stores a Turtle or N-Triples document after checking
// that it parses.
func (h *Handlers) handlePutDocument(c echo.Context) error {
	url := h.resourceURL(c)
	body, err := readBody(c)
	if err != nil {
		return writeErr(c, err)
	}
	ctype := mediaType(c, rdf.MediaTurtle)
	if ctype != rdf.MediaTurtle && ctype != rdf.MediaNTriples {
		return problem(c, http.StatusUnsupportedMediaType, "unsupported-media-type", "Documents must be text/turtle or application/n-triples.")
	}
	if _, err := rdf.Parse(bytes.NewReader(body), url, ctype); err != nil {
		return problem(c, http.StatusBadRequest, "invalid-document", err.Error())
	}

	if err := h.svc.Documents.Put(c.Request().Context(), ports.StoredDocument{URL: url, ContentType: ctype, Body: body}); err != nil {
		return writeErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// handlePatchDocument applies a SPARQL INSERT DATA update.
func (h *Handlers) handlePatchDocument(c echo.Context) error {
	if mediaType(c, "") != rdf.MediaSPARQLUpdate {
		return problem(c, http.StatusUnsupportedMediaType, "unsupported-media-type", "PATCH requires application/sparql-update.")
	}
	body, err := readBody(c)
	if err != nil {
		return writeErr(c, err)
	}
	if err := h.svc.Publisher.Publish(c.Request().Context(), h.resourceURL(c), string(body)); err != nil {
		if errors.Is(err, ports.ErrParse) {
			return problem(c, http.StatusBadRequest, "invalid-update", err.Error())
		}
		return writeErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handlers) handleListInbox(c echo.Context) error {
	limit := defaultListLimit
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return problem(c, http.StatusBadRequest, "invalid-request", "limit must be a positive integer.")
		}
		limit = n
	}

	items, err := h.svc.Inbox.List(c.Request().Context(), h.resourceURL(c), limit)
	if err != nil {
		return writeErr(c, err)
	}
	if items == nil {
		items = []ports.Notification{}
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.JSON(http.StatusOK, map[string]any{"notifications": items})
}

// handlePostInbox accepts either a JSON notification or an RDF body, the
// latter as sent by other pods.
func (h *Handlers) handlePostInbox(c echo.Context) error {
	mailbox := h.resourceURL(c)
	raw, err := readBody(c)
	if err != nil {
		return writeErr(c, err)
	}

	var n ports.Notification
	switch ctype := mediaType(c, rdf.MediaTurtle); ctype {
	case echo.MIMEApplicationJSON:
		if err := json.Unmarshal(raw, &n); err != nil {
			return problem(c, http.StatusBadRequest, "invalid-notification", err.Error())
		}
	case rdf.MediaTurtle, rdf.MediaNTriples:
		triples, err := rdf.Parse(bytes.NewReader(raw), mailbox, ctype)
		if err != nil {
			return problem(c, http.StatusBadRequest, "invalid-notification", err.Error())
		}
		n.Body = rdf.EncodeNTriples(triples)
	default:
		return problem(c, http.StatusUnsupportedMediaType, "unsupported-media-type", "Notifications must be JSON, Turtle or N-Triples.")
	}

	n.Inbox = mailbox
	if n.ID == "" {
		n.ID = c.Request().Header.Get("Slug")
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = h.now().UTC()
	}

	if err := h.svc.Inbox.Deliver(c.Request().Context(), n); err != nil {
		if errors.Is(err, ports.ErrParse) {
			return problem(c, http.StatusBadRequest, "invalid-notification", err.Error())
		}
		return writeErr(c, err)
	}
	c.Response().Header().Set("Location", mailbox+"#"+n.ID)
	return c.NoContent(http.StatusCreated)
}

func readBody(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxDocumentBytes+1))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(body) > maxDocumentBytes {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "body too large")
	}
	return body, nil
}

func mediaType(c echo.Context, def string) string {
	raw := c.Request().Header.Get(echo.HeaderContentType)
	if raw == "" {
		return def
	}
	mt, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return def
	}
	return strings.ToLower(mt)
}
