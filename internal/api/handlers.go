package api

import (
	"errors"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"aptsurge/server/internal/models"
	"aptsurge/server/internal/runlog"
)

// DocumentReader reads the published documents
type DocumentReader interface {
	ReadSummary() (*models.SummaryDocument, error)
	ReadSearchIndex() (*models.SearchIndexDocument, error)
	ReadIndex() (*models.IndexDocument, error)
	ReadHistory(id string) ([]models.PricePoint, error)
}

// RunLister lists recorded pipeline runs
type RunLister interface {
	Recent(limit int) ([]runlog.Run, error)
}

var apartmentIDPattern = regexp.MustCompile(`^[0-9a-f]{10}$`)

type Handler struct {
	docs   DocumentReader
	runs   RunLister
	logger *logrus.Logger
}

type SearchQuery struct {
	Q        string `form:"q"`
	Sido     string `form:"sido"`
	District string `form:"district"`
	Limit    int    `form:"limit"`
}

func NewHandler(docs DocumentReader, runs RunLister, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Handler{
		docs:   docs,
		runs:   runs,
		logger: logger,
	}
}

func (h *Handler) GetSummary(c *gin.Context) {
	doc, err := h.docs.ReadSummary()
	if err != nil {
		h.documentError(c, err, "summary")
		return
	}

	sido := c.Query("sido")
	if sido == "" {
		c.JSON(http.StatusOK, doc)
		return
	}

	s, ok := doc.Sidos[sido]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Province not found"})
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) Search(c *gin.Context) {
	var query SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.WithError(err).Error("Failed to parse search query")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid search parameters"})
		return
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 500 {
		query.Limit = 500
	}

	doc, err := h.docs.ReadSearchIndex()
	if err != nil {
		h.documentError(c, err, "search index")
		return
	}

	items := filterItems(doc, query)
	total := len(items)
	if len(items) > query.Limit {
		items = items[:query.Limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"updated_at": doc.UpdatedAt,
		"total":      total,
		"items":      items,
	})
}

// filterItems walks provinces in display order; item order within a province is kept
func filterItems(doc *models.SearchIndexDocument, query SearchQuery) []models.Comparison {
	needle := strings.ToLower(strings.TrimSpace(query.Q))
	items := []models.Comparison{}
	for _, sido := range doc.SidoOrder {
		if query.Sido != "" && sido != query.Sido {
			continue
		}
		for _, item := range doc.Sidos[sido].Items {
			if query.District != "" && item.District != query.District {
				continue
			}
			if needle != "" && !matches(item, needle) {
				continue
			}
			items = append(items, item)
		}
	}
	return items
}

func matches(item models.Comparison, needle string) bool {
	for _, field := range []string{item.AptName, item.DongName, item.Sigungu, item.District} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func (h *Handler) GetHistory(c *gin.Context) {
	id := c.Param("id")
	if !apartmentIDPattern.MatchString(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid apartment id"})
		return
	}

	history, err := h.docs.ReadHistory(id)
	if err != nil {
		h.documentError(c, err, "history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "history": history})
}

func (h *Handler) GetIndex(c *gin.Context) {
	doc, err := h.docs.ReadIndex()
	if err != nil {
		h.documentError(c, err, "index")
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) GetRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	if h.runs == nil {
		c.JSON(http.StatusOK, []runlog.Run{})
		return
	}

	runs, err := h.runs.Recent(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (h *Handler) documentError(c *gin.Context, err error, name string) {
	if errors.Is(err, os.ErrNotExist) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No " + name + " has been generated"})
		return
	}
	h.logger.WithError(err).WithField("document", name).Error("Failed to read document")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read " + name})
}
