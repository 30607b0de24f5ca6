package handlers

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/activadee/videocraft-render/internal/config"
	rerrors "github.com/activadee/videocraft-render/internal/domain/errors"
	"github.com/activadee/videocraft-render/internal/domain/models"
	"github.com/activadee/videocraft-render/internal/lock"
	"github.com/activadee/videocraft-render/internal/orchestrator"
	"github.com/activadee/videocraft-render/pkg/logger"
)

// pingInterval bounds the duplex progress channel's heartbeat at the ≤10s
// ceiling §6 sets for /export/progress/{id}.
const pingInterval = 8 * time.Second

// maxMissedPings closes the connection after this many consecutive
// heartbeat failures, rather than leaving a half-dead socket open forever.
const maxMissedPings = 3

var lowerCaser = cases.Lower(language.English)

// ExportHandler serves the job-submission and control surface of §6:
// start, status, queue, cancel, and the duplex progress channel. It is a
// thin translation layer over orchestrator.Manager — no render logic lives
// here, matching §4.7's boundary between the HTTP surface and the
// orchestrator.
type ExportHandler struct {
	cfg      *config.Config
	manager  *orchestrator.Manager
	log      logger.Logger
	upgrader websocket.Upgrader
}

func NewExportHandler(cfg *config.Config, manager *orchestrator.Manager, log logger.Logger) *ExportHandler {
	return &ExportHandler{
		cfg:     cfg,
		manager: manager,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin is already enforced by the CORS allowlist in front of
			// this handler; the handshake itself accepts anything that got
			// this far.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// startRequest mirrors the POST /export/start body from §6.
type startRequest struct {
	ProjectName string              `json:"project_name" binding:"required"`
	ExportType  models.ExportType   `json:"export_type"`
	VideoID     string              `json:"video_id,omitempty"`
	Config      models.RenderConfig `json:"config"`
	UserTier    string              `json:"user_tier,omitempty"`
}

// Start handles POST /export/start.
func (h *ExportHandler) Start(c *gin.Context) {
	var body startRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(rerrors.InvalidInput(err.Error()))
		return
	}

	exportType := models.ExportType(lowerCaser.String(string(body.ExportType)))
	if exportType == "" {
		exportType = models.ExportTypeDefault
	}
	body.Config.Quality = models.Quality(lowerCaser.String(string(body.Config.Quality)))

	req := models.RenderRequest{
		ProjectName: body.ProjectName,
		ExportType:  exportType,
		VideoID:     body.VideoID,
		Config:      body.Config,
		UserTier:    body.UserTier,
	}

	jobID, err := h.manager.Start(req)
	if err != nil {
		c.Error(err)
		return
	}

	job, err := h.manager.GetJob(jobID)
	if err != nil {
		c.Error(err)
		return
	}

	bgmTracks := h.bgmTracksSummary(body.ProjectName, body.Config.BackgroundMusicPath)

	c.JSON(http.StatusAccepted, gin.H{
		"export_id":        job.ID,
		"status":           job.Status,
		"output_path":      job.OutputPath,
		"bgm_tracks":       bgmTracks,
		"bgm_tracks_count": len(bgmTracks),
	})
}

// bgmTracksSummary reports the project's configured BGM tracks plus, if
// present, the ad hoc bgm_path the worker will add for this render (§4.6).
// The project is read informationally here; the worker re-validates paths
// and drops missing files with a warning when it actually renders.
func (h *ExportHandler) bgmTracksSummary(projectName, adhocBGMPath string) []string {
	projectPath := filepath.Join(h.cfg.Storage.ProjectsDir, projectName+".json")
	project, err := lock.ReadProject(projectPath)
	if err != nil {
		return nil
	}

	tracks := make([]string, 0, len(project.BGMTracks)+1)
	for _, t := range project.BGMTracks {
		tracks = append(tracks, t.Path)
	}
	if adhocBGMPath != "" {
		tracks = append(tracks, adhocBGMPath)
	}
	return tracks
}

// Status handles GET /export/status/:id.
func (h *ExportHandler) Status(c *gin.Context) {
	job, err := h.manager.GetJob(c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// Queue handles GET /export/queue.
func (h *ExportHandler) Queue(c *gin.Context) {
	jobs := h.manager.List()
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// Cancel handles DELETE /export/cancel/:id.
func (h *ExportHandler) Cancel(c *gin.Context) {
	if err := h.manager.Cancel(c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// controlMessage is what a connected client may send over the duplex
// channel: a "status" request for an out-of-band snapshot, or a "ping".
type controlMessage struct {
	Type string `json:"type"`
}

// Progress serves the duplex /export/progress/:id channel (§6): a
// stage-snapshot on connect, every subsequent worker progress record, a
// server heartbeat at most every pingInterval, and a fresh snapshot
// whenever the client sends {"type":"status"}.
func (h *ExportHandler) Progress(c *gin.Context) {
	jobID := c.Param("id")

	events, snapshot, unsubscribe, err := h.manager.Subscribe(jobID)
	if err != nil {
		c.Error(err)
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("progress websocket upgrade failed")
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(snapshot); err != nil {
		return
	}

	incoming := make(chan controlMessage, 1)
	done := make(chan struct{})
	go h.readControlMessages(conn, incoming, done)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	missedPings := 0
	for {
		select {
		case <-done:
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}

		case msg := <-incoming:
			if msg.Type != "status" {
				continue
			}
			current, err := h.manager.GetJob(jobID)
			if err != nil {
				return
			}
			if err := conn.WriteJSON(current); err != nil {
				return
			}

		case <-ticker.C:
			if err := conn.WriteJSON(gin.H{"type": "ping"}); err != nil {
				missedPings++
				if missedPings >= maxMissedPings {
					return
				}
				continue
			}
			missedPings = 0
		}
	}
}

// readControlMessages feeds client-sent control frames to the select loop
// above and closes done when the connection drops, since gorilla's Conn
// has no select-friendly read.
func (h *ExportHandler) readControlMessages(conn *websocket.Conn, incoming chan<- controlMessage, done chan<- struct{}) {
	defer close(done)
	for {
		var msg controlMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		select {
		case incoming <- msg:
		default:
		}
	}
}
