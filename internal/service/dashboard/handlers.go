package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"beacon/internal/classify"
	"beacon/internal/config"
	"beacon/internal/freshservice"
	"beacon/internal/models/dto"
	"beacon/internal/utils"
)

// buildBoard assembles the four-section board for one view. The cache being
// empty or partially corrupt is not an error; the board just shows what is
// readable.
func buildBoard(c *gin.Context, cfg *config.App, slug string) (*dto.BoardResponse, error) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	var (
		tickets   []*freshservice.Ticket
		corrupt   int
		generated string
	)

	if cfg.TicketSource == config.SourceCodex {
		active, err := cfg.Link.FetchActiveTickets(ctx)
		if err != nil {
			cfg.Logger.Warn("codex unavailable, falling back to local cache", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			tickets = active.Tickets
			generated = active.LastSyncTime
		}
	}
	if tickets == nil {
		var err error
		tickets, corrupt, err = cfg.Store.ReadAll()
		if err != nil {
			return nil, err
		}
	}

	cfg.Names.EnsureLoaded(ctx)

	var agentFilter *int64
	if raw := c.Query("agent_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errBadAgentID
		}
		agentFilter = &id
	}

	now := time.Now().UTC()
	if generated == "" {
		generated = now.Format(time.RFC3339)
	}

	viewName := SupportedViews[slug]
	board := &dto.BoardResponse{
		S1Items:           []dto.TicketItem{},
		S2Items:           []dto.TicketItem{},
		S3Items:           []dto.TicketItem{},
		S4Items:           []dto.TicketItem{},
		GeneratedTimeISO:  generated,
		View:              slug,
		Section1Name:      "Open " + viewName + " Tickets",
		Section2Name:      "Customer Replied",
		Section3Name:      "Needs Agent / Update Overdue",
		Section4Name:      "Other Active " + viewName + " Tickets",
		CacheCorruptCount: corrupt,
	}

	buckets := map[classify.Bucket][]classify.Classified{}
	for _, t := range tickets {
		if !viewMatches(slug, t.GroupID) {
			continue
		}
		if agentFilter != nil && (t.ResponderID == nil || *t.ResponderID != *agentFilter) {
			continue
		}
		row := classify.Classify(t, now, cfg.SLA)
		buckets[row.Bucket] = append(buckets[row.Bucket], row)
	}

	for bucket, rows := range buckets {
		classify.SortBucket(rows)
		items := make([]dto.TicketItem, 0, len(rows))
		for _, row := range rows {
			items = append(items, toItem(cfg, row))
		}
		switch bucket {
		case classify.BucketFirstResponse:
			board.S1Items = items
		case classify.BucketCustomerReplied:
			board.S2Items = items
		case classify.BucketUpdateOverdue:
			board.S3Items = items
		case classify.BucketOtherActive:
			board.S4Items = items
		}
	}

	board.TotalActiveItems = len(board.S1Items) + len(board.S2Items) + len(board.S3Items) + len(board.S4Items)
	return board, nil
}

var errBadAgentID = errors.New("agent_id must be an integer")

func toItem(cfg *config.App, row classify.Classified) dto.TicketItem {
	t := row.Ticket
	return dto.TicketItem{
		ID:                     t.ID,
		Subject:                t.Subject,
		Type:                   t.Type,
		StatusText:             row.StatusText,
		PriorityText:           row.PriorityText,
		AgentName:              cfg.Names.AgentName(t.ResponderID),
		RequesterName:          cfg.Names.RequesterName(t.RequesterID),
		UpdatedFriendly:        row.UpdatedFriendly,
		CreatedDaysOld:         row.CreatedDaysOld,
		AgentRespondedFriendly: row.AgentRespondedFriendly,
		SLAText:                row.SLAText,
		SLAClass:               row.SLAClass,
		GroupID:                t.GroupID,
		ResponderID:            t.ResponderID,
	}
}

func renderBoard(c *gin.Context, cfg *config.App, kiosk bool) {
	slug := c.Param("view_slug")
	if _, ok := SupportedViews[slug]; !ok {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(c, http.StatusNotFound, "unknown view: "+slug, "Error while rendering dashboard", nil))
		return
	}

	board, err := buildBoard(c, cfg, slug)
	if err == errBadAgentID {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(c, http.StatusBadRequest, err.Error(), "Error while rendering dashboard", nil))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(c, http.StatusInternalServerError, err.Error(), "Error while rendering dashboard", nil))
		return
	}

	sections := []boardSection{
		{Name: board.Section1Name, Items: board.S1Items},
		{Name: board.Section2Name, Items: board.S2Items},
		{Name: board.Section3Name, Items: board.S3Items},
		{Name: board.Section4Name, Items: board.S4Items},
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Board":          board,
		"Sections":       sections,
		"ViewName":       SupportedViews[slug],
		"Views":          SupportedViews,
		"Slug":           slug,
		"Kiosk":          kiosk,
		"Agents":         cfg.Names.Agents(),
		"RefreshSeconds": AutoRefreshSeconds,
		"BaseURL":        utils.GetCurrentProtocolAndHost(c),
	})
}

// boardSection pairs a header with its rows for the template.
type boardSection struct {
	Name  string
	Items []dto.TicketItem
}

// Board handles the GET /:view_slug dashboard page
// @Summary      Render the ticket dashboard
// @Description  Full HTML board for the given view, four sections in display order
// @Tags         dashboard
// @Produce      html
// @Param        view_slug  path   string  true   "View slug (helpdesk or professional-services)"
// @Param        agent_id   query  int     false  "Only show tickets assigned to this agent"
// @Success      200  {string}  string  "HTML page"
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /{view_slug} [get]
func Board(cfg *config.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		renderBoard(c, cfg, false)
	}
}

// Display handles the GET /display/:view_slug kiosk page
// @Summary      Render the unauthenticated kiosk board
// @Description  Same board as the dashboard, stripped of interactive chrome, for wall displays
// @Tags         dashboard
// @Produce      html
// @Param        view_slug  path  string  true  "View slug"
// @Success      200  {string}  string  "HTML page"
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /display/{view_slug} [get]
func Display(cfg *config.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		renderBoard(c, cfg, true)
	}
}

// APITickets handles the GET /api/tickets/:view_slug endpoint
// @Summary      Board data as JSON
// @Description  The same payload the HTML board renders, for polling clients
// @Tags         dashboard
// @Produce      json
// @Param        view_slug  path   string  true   "View slug"
// @Param        agent_id   query  int     false  "Only show tickets assigned to this agent"
// @Success      200  {object}  dto.BoardResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/tickets/{view_slug} [get]
func APITickets(cfg *config.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("view_slug")
		if _, ok := SupportedViews[slug]; !ok {
			c.JSON(http.StatusNotFound, dto.NewErrorResponse(c, http.StatusNotFound, "unknown view: "+slug, "Error while building board", nil))
			return
		}

		board, err := buildBoard(c, cfg, slug)
		if err == errBadAgentID {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(c, http.StatusBadRequest, err.Error(), "Error while building board", nil))
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(c, http.StatusInternalServerError, err.Error(), "Error while building board", nil))
			return
		}

		c.JSON(http.StatusOK, board)
	}
}

// RedirectDefault handles GET / by sending the client to the default view.
func RedirectDefault() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/"+DefaultViewSlug)
	}
}
