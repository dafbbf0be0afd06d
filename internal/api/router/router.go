package router

import (
	"context"
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"

	"resume-tailor-go/internal/api/handler"
	"resume-tailor-go/internal/embedding"
	"resume-tailor-go/internal/extractor"
	"resume-tailor-go/internal/rawtext"
	"resume-tailor-go/internal/storage"
	"resume-tailor-go/internal/types"
)

// textRequest 纯文本输入
type textRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
}

// scoreRequest 评分输入：已抽取的两个模型
type scoreRequest struct {
	Resume *types.ResumeModel `json:"resume"`
	Job    *types.JobModel    `json:"job"`
}

// optimizeRequest 优化输入
type optimizeRequest struct {
	Resume    *types.ResumeModel     `json:"resume"`
	Alignment *types.AlignmentResult `json:"alignment"`
}

// tailorRequest 完整流水线输入
type tailorRequest struct {
	ResumeText string `json:"resume_text"`
	JobText    string `json:"job_text"`
}

// RegisterRoutes 注册API路由。apiToken非空时启用Bearer Token鉴权
func RegisterRoutes(h *server.Hertz, tailorHandler *handler.TailorHandler, apiToken string) {
	api := h.Group("/api/v1")

	if apiToken != "" {
		api.Use(keyauth.New(
			keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
			keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
				return key == apiToken, nil
			}),
		))
	}

	api.POST("/resume/extract", func(c context.Context, ctx *app.RequestContext) {
		// 优先接收上传文件，没有文件时回落到JSON文本
		if fileHeader, err := ctx.FormFile("file"); err == nil {
			file, err := fileHeader.Open()
			if err != nil {
				ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
				return
			}
			defer file.Close()

			resp, err := tailorHandler.HandleResumeFile(c, file, fileHeader.Filename)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(consts.StatusOK, resp)
			return
		}

		var req textRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}
		resp, err := tailorHandler.HandleResumeText(c, req.Text)
		if err != nil {
			respondError(ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.POST("/job/extract", func(c context.Context, ctx *app.RequestContext) {
		var req textRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}
		resp, err := tailorHandler.HandleJobText(c, req.Text, req.SessionID)
		if err != nil {
			respondError(ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.POST("/score", func(c context.Context, ctx *app.RequestContext) {
		var req scoreRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}
		if req.Resume == nil || req.Job == nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "resume与job不能为空"})
			return
		}
		resp, err := tailorHandler.HandleScore(c, req.Resume, req.Job)
		if err != nil {
			respondError(ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.POST("/optimize", func(c context.Context, ctx *app.RequestContext) {
		var req optimizeRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}
		if req.Resume == nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "resume不能为空"})
			return
		}
		resp, err := tailorHandler.HandleOptimize(c, req.Resume, req.Alignment)
		if err != nil {
			respondError(ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.POST("/tailor", func(c context.Context, ctx *app.RequestContext) {
		var req tailorRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}
		resp, err := tailorHandler.HandleTailor(c, req.ResumeText, req.JobText)
		if err != nil {
			respondError(ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/session/:id", func(c context.Context, ctx *app.RequestContext) {
		resp, err := tailorHandler.HandleGetSession(c, ctx.Param("id"))
		if err != nil {
			respondError(ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}

// respondError 把领域错误映射到HTTP状态码
func respondError(ctx *app.RequestContext, err error) {
	var extractionErr *extractor.ExtractionError
	switch {
	case errors.As(err, &extractionErr):
		ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
	case errors.Is(err, rawtext.ErrUnsupportedFormat):
		ctx.JSON(consts.StatusUnsupportedMediaType, utils.H{"error": err.Error()})
	case errors.Is(err, storage.ErrSessionNotFound):
		ctx.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
	case errors.Is(err, embedding.ErrEmbeddingUnavailable):
		// 可重试的瞬时故障
		ctx.JSON(consts.StatusServiceUnavailable, utils.H{"error": err.Error()})
	default:
		ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
	}
}
