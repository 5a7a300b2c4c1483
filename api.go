package dirscout

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pevans/dirscout/store"
)

// APIServer represents the HTTP API server.
type APIServer struct {
	service *Service
	store   *store.Store
}

// NewAPIServer creates a new API server over the pipeline service and its
// store.
func NewAPIServer(service *Service, st *store.Store) *APIServer {
	return &APIServer{
		service: service,
		store:   st,
	}
}

// SetupRouter configures the Gin router with all dirscout API routes
func (s *APIServer) SetupRouter() *gin.Engine {
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	api := router.Group("/api/v1")
	api.POST("/discover", s.HandleDiscover)
	api.GET("/directories", s.HandleListDirectories)
	api.POST("/scrape", s.HandleScrape)
	api.GET("/businesses", s.HandleListBusinesses)
	api.GET("/export-csv/:directory_id", s.HandleExportCSV)

	return router
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DiscoverRequest is the body for POST /api/v1/discover.
type DiscoverRequest struct {
	Location       string   `json:"location"`
	DirectoryTypes []string `json:"directory_types"`
	MaxResults     int      `json:"max_results"`
}

// HandleDiscover handles POST /api/v1/discover.
func (s *APIServer) HandleDiscover(c *gin.Context) {
	var req DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "invalid_request",
				"message": "Invalid request body: " + err.Error(),
			},
		})
		return
	}

	result, err := s.service.Discover(c.Request.Context(), req.Location, req.DirectoryTypes, req.MaxResults)
	if err != nil {
		status := http.StatusInternalServerError
		code := "internal_error"
		if errors.Is(err, store.ErrInvalidDirType) || req.Location == "" {
			status = http.StatusBadRequest
			code = "invalid_parameter"
		}
		c.JSON(status, gin.H{
			"error": gin.H{
				"code":    code,
				"message": "Discovery failed: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListDirectoriesResponse represents the response for GET
// /api/v1/directories.
type ListDirectoriesResponse struct {
	Directories []store.Directory `json:"directories"`
	Total       int               `json:"total"`
}

// HandleListDirectories handles GET /api/v1/directories.
func (s *APIServer) HandleListDirectories(c *gin.Context) {
	directories, err := s.store.GetDirectories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "internal_error",
				"message": "Failed to list directories: " + err.Error(),
			},
		})
		return
	}

	// Filter by scrape status (optional)
	if status := c.Query("status"); status != "" {
		directories = filterByStatus(directories, status)
	}

	// Filter by directory type (optional)
	if dirType := c.Query("directory_type"); dirType != "" {
		directories = filterByType(directories, dirType)
	}

	c.JSON(http.StatusOK, ListDirectoriesResponse{
		Directories: directories,
		Total:       len(directories),
	})
}

func filterByStatus(dirs []store.Directory, status string) []store.Directory {
	var filtered []store.Directory
	for _, d := range dirs {
		if d.ScrapeStatus == status {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

func filterByType(dirs []store.Directory, dirType string) []store.Directory {
	var filtered []store.Directory
	for _, d := range dirs {
		if d.DirectoryType == dirType {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

// ScrapeRequest is the body for POST /api/v1/scrape. Either a single
// directory_id or a directory_ids batch is accepted.
type ScrapeRequest struct {
	DirectoryID  string   `json:"directory_id"`
	DirectoryIDs []string `json:"directory_ids"`
}

// ScrapeBatchResponse represents the response for a batch scrape.
type ScrapeBatchResponse struct {
	Results []ScrapeResult `json:"results"`
}

// HandleScrape handles POST /api/v1/scrape.
func (s *APIServer) HandleScrape(c *gin.Context) {
	var req ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "invalid_request",
				"message": "Invalid request body: " + err.Error(),
			},
		})
		return
	}

	rawIDs := req.DirectoryIDs
	if req.DirectoryID != "" {
		rawIDs = append([]string{req.DirectoryID}, rawIDs...)
	}
	if len(rawIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "invalid_request",
				"message": "directory_id or directory_ids is required",
			},
		})
		return
	}

	ids := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    "invalid_id",
					"message": "Invalid directory ID " + raw + ": " + err.Error(),
				},
			})
			return
		}
		ids = append(ids, id)
	}

	if len(ids) == 1 {
		result, err := s.service.Scrape(c.Request.Context(), ids[0])
		if err != nil {
			if errors.Is(err, store.ErrDirectoryNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"error": gin.H{
						"code":    "not_found",
						"message": "Directory with ID " + ids[0].String() + " not found",
					},
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "internal_error",
					"message": "Scrape failed: " + err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	results := s.service.ScrapeBatch(c.Request.Context(), ids)
	c.JSON(http.StatusOK, ScrapeBatchResponse{Results: results})
}

// ListBusinessesResponse represents the response for GET /api/v1/businesses.
type ListBusinessesResponse struct {
	Businesses []store.Business `json:"businesses"`
	Total      int              `json:"total"`
}

// HandleListBusinesses handles GET /api/v1/businesses. An optional
// directory_id query parameter scopes the listing to one directory.
func (s *APIServer) HandleListBusinesses(c *gin.Context) {
	directoryID := uuid.Nil
	if param := c.Query("directory_id"); param != "" {
		id, err := uuid.Parse(param)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    "invalid_id",
					"message": "Invalid directory ID: " + err.Error(),
				},
			})
			return
		}
		directoryID = id
	}

	businesses, err := s.store.GetBusinesses(directoryID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "internal_error",
				"message": "Failed to list businesses: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, ListBusinessesResponse{
		Businesses: businesses,
		Total:      len(businesses),
	})
}

// HandleExportCSV handles GET /api/v1/export-csv/{directory_id}.
func (s *APIServer) HandleExportCSV(c *gin.Context) {
	id, err := uuid.Parse(c.Param("directory_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "invalid_id",
				"message": "Invalid directory ID: " + err.Error(),
			},
		})
		return
	}

	dir, err := s.store.GetDirectory(id)
	if err != nil {
		if errors.Is(err, store.ErrDirectoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{
					"code":    "not_found",
					"message": "Directory with ID " + id.String() + " not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "internal_error",
				"message": "Failed to get directory: " + err.Error(),
			},
		})
		return
	}

	businesses, err := s.store.GetBusinesses(dir.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "internal_error",
				"message": "Failed to list businesses: " + err.Error(),
			},
		})
		return
	}

	csvData, err := ExportCSV(businesses)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "internal_error",
				"message": "Failed to export CSV: " + err.Error(),
			},
		})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=businesses-"+dir.ID.String()+".csv")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(csvData))
}
