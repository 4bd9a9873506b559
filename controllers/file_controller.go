package controllers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cppla/filehub/config"
	"github.com/cppla/filehub/models"
	"github.com/cppla/filehub/storage"
	"github.com/cppla/filehub/utils"
)

const (
	msgChunkSizeRequired = "chunk_size is required when large is set to True."
	msgFileRequired      = "file is required"
	msgFileTooLarge      = "File is too large."
	msgReadError         = "Error reading file. Please try again."
	msgNotFound          = "Not found"

	listCachePrefix   = "cache:files:list:"
	listGenerationKey = "cache:files:generation"
	detailCachePrefix = "cache:files:detail:"

	// multipartOverhead is the slack allowed on top of the size ceiling for
	// boundaries and part headers before the body is cut off.
	multipartOverhead = 64 << 10

	statusClientClosedRequest = 499
	totalCountHeader          = "X-Total-Count"
)

// FileRecords is the metadata store used by FileController.
type FileRecords interface {
	Insert(ctx context.Context, f *models.File) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.File, error)
	List(ctx context.Context, pageSize, pageNumber int) ([]models.File, error)
	Count(ctx context.Context) (int64, error)
}

// UploadObserver is told about every stored upload.
type UploadObserver interface {
	ObserveUpload(mode string, size int64)
}

// FileController serves upload, list and get-by-id for stored files.
type FileController struct {
	records   FileRecords
	store     *storage.Store
	cache     *utils.Cache
	log       *zap.Logger
	maxSize   int64
	streamMax int64
	observer  UploadObserver
}

func NewFileController(cfg config.AppConfig, records FileRecords, store *storage.Store, cache *utils.Cache, log *zap.Logger) *FileController {
	return &FileController{
		records:   records,
		store:     store,
		cache:     cache,
		log:       log,
		maxSize:   cfg.MaxSizeFile,
		streamMax: cfg.StreamMaxSizeFile,
	}
}

// WithObserver registers o to be notified of stored uploads.
func (f *FileController) WithObserver(o UploadObserver) *FileController {
	f.observer = o
	return f
}

type uploadQuery struct {
	Large     bool `form:"large"`
	ChunkSize *int `form:"chunk_size" binding:"omitempty,min=1"`
}

type listQuery struct {
	PageSize   int `form:"page_size,default=1" binding:"min=1,max=100"`
	PageNumber int `form:"page_number,default=1" binding:"min=1"`
}

type listPage struct {
	Total int64             `json:"total"`
	Items []models.FileView `json:"items"`
}

// Upload stores the multipart "file" field on disk and records its metadata.
func (f *FileController) Upload(ctx *gin.Context) {
	var q uploadQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		utils.ValidationError(ctx, "query", err)
		return
	}
	if q.Large && q.ChunkSize == nil {
		utils.Detail(ctx, http.StatusBadRequest, msgChunkSizeRequired)
		return
	}

	ceiling := f.maxSize
	if q.Large {
		ceiling = f.streamMax
	}
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, ceiling+multipartOverhead)

	header, err := ctx.FormFile("file")
	if err != nil {
		f.rejectForm(ctx, err)
		return
	}
	if header.Size > ceiling {
		utils.Detail(ctx, http.StatusRequestEntityTooLarge, msgFileTooLarge)
		return
	}

	record, strategy, err := f.save(ctx, header, q)
	if err != nil {
		f.rejectSave(ctx, err)
		return
	}

	if err := f.records.Insert(ctx.Request.Context(), record); err != nil {
		f.log.Error("insert file metadata failed", zap.String("path", record.FilePath), zap.Error(err))
		utils.Detail(ctx, http.StatusInternalServerError, "Unexpected error: "+err.Error())
		return
	}

	// bump first: a list that read the table before this insert writes its
	// page under the old generation, which is never read again
	f.cache.BumpGeneration(ctx.Request.Context(), listGenerationKey)
	f.cache.InvalidateByPrefix(ctx.Request.Context(), listCachePrefix)
	if f.observer != nil {
		f.observer.ObserveUpload(strategy.Mode(), record.FileSize)
	}
	f.log.Info("file uploaded",
		zap.String("id", record.ID.String()),
		zap.String("path", record.FilePath),
		zap.Int64("size", record.FileSize),
		zap.String("mode", strategy.Mode()),
	)
	ctx.JSON(http.StatusOK, record.View())
}

func (f *FileController) save(ctx *gin.Context, header *multipart.FileHeader, q uploadQuery) (*models.File, storage.WriteStrategy, error) {
	strategy := storage.ResolveStrategy(q.Large, q.ChunkSize)
	src, err := header.Open()
	if err != nil {
		return nil, strategy, fmt.Errorf("%w: %w", storage.ErrMalformedStream, err)
	}
	defer src.Close()

	record, err := f.store.Save(ctx.Request.Context(), src, header.Filename, header.Header.Get("Content-Type"), strategy)
	return record, strategy, err
}

func (f *FileController) rejectForm(ctx *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge), strings.Contains(err.Error(), "request body too large"):
		utils.Detail(ctx, http.StatusRequestEntityTooLarge, msgFileTooLarge)
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		utils.Detail(ctx, http.StatusBadRequest, msgFileRequired)
	default:
		f.log.Warn("parse multipart upload failed", zap.Error(err))
		utils.Detail(ctx, http.StatusBadRequest, msgReadError)
	}
}

func (f *FileController) rejectSave(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrMalformedStream):
		utils.Detail(ctx, http.StatusBadRequest, msgReadError)
	case errors.Is(err, context.Canceled):
		f.log.Info("upload aborted by client", zap.Error(err))
		ctx.AbortWithStatus(statusClientClosedRequest)
	default:
		utils.Detail(ctx, http.StatusInternalServerError, "Unexpected error: "+err.Error())
	}
}

// List returns one page of file records in insertion order.
func (f *FileController) List(ctx *gin.Context) {
	var q listQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		utils.ValidationError(ctx, "query", err)
		return
	}
	reqCtx := ctx.Request.Context()
	cacheKey := listCacheKey(f.cache.Generation(reqCtx, listGenerationKey), q.PageSize, q.PageNumber)

	var page listPage
	if !f.cache.GetJSON(reqCtx, cacheKey, &page) {
		files, err := f.records.List(reqCtx, q.PageSize, q.PageNumber)
		if err != nil {
			f.log.Error("list files failed", zap.Error(err))
			utils.Detail(ctx, http.StatusInternalServerError, "Unexpected error: "+err.Error())
			return
		}
		total, err := f.records.Count(reqCtx)
		if err != nil {
			f.log.Error("count files failed", zap.Error(err))
			utils.Detail(ctx, http.StatusInternalServerError, "Unexpected error: "+err.Error())
			return
		}
		page = listPage{Total: total, Items: models.Views(files)}
		f.cache.SetJSON(reqCtx, cacheKey, page)
	}
	if page.Items == nil {
		page.Items = []models.FileView{}
	}

	ctx.Header(totalCountHeader, strconv.FormatInt(page.Total, 10))
	ctx.JSON(http.StatusOK, page.Items)
}

func listCacheKey(generation int64, pageSize, pageNumber int) string {
	return listCachePrefix + "gen=" + strconv.FormatInt(generation, 10) +
		":size=" + strconv.Itoa(pageSize) + ":page=" + strconv.Itoa(pageNumber)
}

// Get returns one file record by id.
func (f *FileController) Get(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		utils.Detail(ctx, http.StatusNotFound, msgNotFound)
		return
	}
	reqCtx := ctx.Request.Context()
	cacheKey := detailCachePrefix + id.String()

	// records are immutable, so a cached detail never goes stale
	if b, ok := f.cache.GetBytes(reqCtx, cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return
	}

	file, err := f.records.GetByID(reqCtx, id)
	if err != nil {
		f.log.Error("get file failed", zap.String("id", id.String()), zap.Error(err))
		utils.Detail(ctx, http.StatusInternalServerError, "Unexpected error: "+err.Error())
		return
	}
	if file == nil {
		utils.Detail(ctx, http.StatusNotFound, msgNotFound)
		return
	}

	view := file.View()
	f.cache.SetJSON(reqCtx, cacheKey, view)
	ctx.JSON(http.StatusOK, view)
}
