package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/eglogicsabhishek1/jbe-management/internal/app"
	"github.com/eglogicsabhishek1/jbe-management/internal/domain/alerts"
	"github.com/eglogicsabhishek1/jbe-management/internal/domain/backup"
	idb "github.com/eglogicsabhishek1/jbe-management/internal/infra/database"
	"github.com/go-playground/validator/v10"
)

// Narrow service interfaces consumed by the handlers; the app services
// satisfy them, tests substitute fakes.

type StatsService interface {
	CountActiveUsers(ctx context.Context) (*app.CountReport, error)
}

type Distributor interface {
	RunDistribution(ctx context.Context, partitionCount int, referenceDate time.Time) (*alerts.Run, error)
}

type BackupService interface {
	Restore(ctx context.Context, tableName, versionTag string) error
	List(ctx context.Context, tableName string) ([]backup.Snapshot, error)
}

// Handler serves the three public operations plus snapshot listing.
type Handler struct {
	stats        StatsService
	distributor  Distributor
	backups      BackupService
	defaultTable string
	validate     *validator.Validate
}

func NewHandler(stats StatsService, distributor Distributor, backups BackupService, defaultTable string) *Handler {
	return &Handler{
		stats:        stats,
		distributor:  distributor,
		backups:      backups,
		defaultTable: defaultTable,
		validate:     validator.New(),
	}
}

// Count returns active-user statistics grouped by frequency and next email
// date. A backup of the alerts table is taken unconditionally as a side
// effect of this endpoint.
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	report, err := h.stats.CountActiveUsers(r.Context())
	if err != nil {
		h.httpError(w, err)
		return
	}

	groups := make([]GroupCount, 0, len(report.Groups))
	for _, g := range report.Groups {
		groups = append(groups, GroupCount{
			Frequency:     string(g.Frequency),
			NextEmailDate: g.NextEmailDate.Format(dateLayout),
			Count:         g.Count,
		})
	}
	writeJSON(w, http.StatusOK, CountEnvelope{
		Status:      "success",
		SnapshotTag: report.SnapshotTag,
		TotalUsers:  report.TotalUsers,
		Groups:      groups,
	})
}

type distributeRequest struct {
	Parts         int    `validate:"required,min=1,max=100"`
	ReferenceDate string `validate:"omitempty,datetime=2006-01-02"`
}

// DistributeUsers triggers one distribution run. reference_date defaults to
// today (UTC) when omitted.
func (h *Handler) DistributeUsers(w http.ResponseWriter, r *http.Request) {
	parts, err := strconv.Atoi(r.URL.Query().Get("parts"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "parts must be an integer")
		return
	}
	req := distributeRequest{
		Parts:         parts,
		ReferenceDate: r.URL.Query().Get("reference_date"),
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid parameters: %v", err))
		return
	}

	referenceDate := todayUTC()
	if req.ReferenceDate != "" {
		referenceDate, _ = time.Parse(dateLayout, req.ReferenceDate) // validated above
	}

	run, err := h.distributor.RunDistribution(r.Context(), req.Parts, referenceDate)
	if err != nil {
		h.httpError(w, err)
		return
	}
	if run.Committed() {
		writeJSON(w, http.StatusOK, newRunEnvelope(run))
		return
	}
	// Rolled back: the table is back in its pre-run state, surface the cause.
	writeJSON(w, http.StatusInternalServerError, newRunEnvelope(run))
}

// RestoreTable restores the named table from a snapshot version tag.
func (h *Handler) RestoreTable(w http.ResponseWriter, r *http.Request) {
	table := h.tableParam(r)
	tag := r.URL.Query().Get("version_tag")
	if tag == "" {
		writeError(w, http.StatusBadRequest, "version_tag is required")
		return
	}

	if err := h.backups.Restore(r.Context(), table, tag); err != nil {
		h.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{
		Message: fmt.Sprintf("restored %q from snapshot %s", table, tag),
	})
}

// ListSnapshots lists known snapshots for the table, newest first.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.backups.List(r.Context(), h.tableParam(r))
	if err != nil {
		h.httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSnapshotEnvelopes(snapshots))
}

func (h *Handler) tableParam(r *http.Request) string {
	if t := r.URL.Query().Get("table_name"); t != "" {
		return t
	}
	return h.defaultTable
}

func (h *Handler) httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, backup.ErrSnapshotNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, alerts.ErrInvalidPartitionCount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, idb.ErrRunInProgress):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func todayUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
