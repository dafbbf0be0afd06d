package handler

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"resume-tailor-go/internal/logger"
	"resume-tailor-go/internal/optimizer"
	"resume-tailor-go/internal/processor"
	"resume-tailor-go/internal/rawtext"
	"resume-tailor-go/internal/types"
)

// TailorHandler 简历裁剪API的业务处理器。
// HTTP协议细节留在router层，这里只做输入编排与流水线调用
type TailorHandler struct {
	service  *processor.Service
	registry *rawtext.Registry
	logger   zerolog.Logger
}

// NewTailorHandler 创建处理器
func NewTailorHandler(service *processor.Service, registry *rawtext.Registry) (*TailorHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("流水线服务不能为空")
	}
	return &TailorHandler{
		service:  service,
		registry: registry,
		logger:   logger.Logger.With().Str("component", "tailor_handler").Logger(),
	}, nil
}

// ExtractResumeResponse 简历抽取响应
type ExtractResumeResponse struct {
	SessionID string             `json:"session_id"`
	Resume    *types.ResumeModel `json:"resume"`
}

// HandleResumeText 从纯文本抽取简历
func (h *TailorHandler) HandleResumeText(ctx context.Context, text string) (*ExtractResumeResponse, error) {
	resume, err := h.service.ExtractResume(ctx, text)
	if err != nil {
		return nil, err
	}
	return &ExtractResumeResponse{SessionID: resume.SessionID, Resume: resume}, nil
}

// HandleResumeFile 从上传文件抽取简历，按扩展名分发提取器
func (h *TailorHandler) HandleResumeFile(ctx context.Context, file io.Reader, filename string) (*ExtractResumeResponse, error) {
	if h.registry == nil {
		return nil, fmt.Errorf("未配置文件提取器，仅支持纯文本输入")
	}
	text, err := h.registry.Extract(ctx, file, filename)
	if err != nil {
		return nil, err
	}
	return h.HandleResumeText(ctx, text)
}

// ExtractJobResponse 岗位抽取响应
type ExtractJobResponse struct {
	Job *types.JobModel `json:"job"`
}

// HandleJobText 从纯文本抽取岗位模型
func (h *TailorHandler) HandleJobText(ctx context.Context, text, sessionID string) (*ExtractJobResponse, error) {
	job, err := h.service.ExtractJob(ctx, text, sessionID)
	if err != nil {
		return nil, err
	}
	return &ExtractJobResponse{Job: job}, nil
}

// HandleScore 对已抽取的简历与岗位做对齐评分
func (h *TailorHandler) HandleScore(ctx context.Context, resume *types.ResumeModel, job *types.JobModel) (*types.AlignmentResult, error) {
	return h.service.Score(ctx, resume, job)
}

// OptimizeResponse 优化响应，附带纯文本渲染结果
type OptimizeResponse struct {
	Result   *optimizer.Result `json:"result"`
	Rendered string            `json:"rendered"`
}

// HandleOptimize 在页面预算内优化简历
func (h *TailorHandler) HandleOptimize(ctx context.Context, resume *types.ResumeModel, alignment *types.AlignmentResult) (*OptimizeResponse, error) {
	result, err := h.service.Optimize(ctx, resume, alignment)
	if err != nil {
		return nil, err
	}
	return &OptimizeResponse{
		Result:   result,
		Rendered: h.service.Render(result.Model),
	}, nil
}

// HandleTailor 一次请求跑完整条流水线
func (h *TailorHandler) HandleTailor(ctx context.Context, resumeText, jobText string) (*processor.TailorOutput, error) {
	return h.service.Tailor(ctx, resumeText, jobText)
}

// HandleGetSession 查询持久化的会话及其阶段快照
func (h *TailorHandler) HandleGetSession(ctx context.Context, sessionID string) (*processor.SessionRecord, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("会话ID不能为空")
	}
	return h.service.Session(ctx, sessionID)
}
