package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-tailor-go/internal/api/handler"
	"resume-tailor-go/internal/api/router"
	"resume-tailor-go/internal/config"
	"resume-tailor-go/internal/embedding"
	"resume-tailor-go/internal/extractor"
	appCoreLogger "resume-tailor-go/internal/logger"
	"resume-tailor-go/internal/optimizer"
	"resume-tailor-go/internal/processor"
	"resume-tailor-go/internal/rawtext"
	"resume-tailor-go/internal/renderer"
	"resume-tailor-go/internal/scorer"
	"resume-tailor-go/internal/storage"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径(留空使用内置默认值)")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	appCoreLogger.Init(cfg.Logger)
	// Hertz内部日志走同一个zerolog实例
	glog.SetLogger(hertzadapter.From(appCoreLogger.Logger))
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storageManager, err := storage.NewStorage(cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	embedder, err := embedding.NewOpenAIEmbedder(cfg.Embedding)
	if err != nil {
		glog.Fatalf("初始化Embedder失败: %v", err)
	}
	glog.Infof("Embedder初始化成功, 模型: %s", cfg.Embedding.Model)

	// 向量缓存优先使用Redis，未配置时退化为进程内缓存
	var vectorCache embedding.VectorCache
	if storageManager.Redis != nil {
		vectorCache = storageManager.Redis
		glog.Info("向量缓存使用Redis")
	} else {
		vectorCache = embedding.NewMemoryCache()
		glog.Info("向量缓存使用进程内存")
	}

	index, err := embedding.NewIndex(embedder, vectorCache, cfg.Embedding.Model)
	if err != nil {
		glog.Fatalf("初始化向量索引失败: %v", err)
	}

	resumeExtractor, err := extractor.NewResumeExtractor(extractor.ResumeExtractorConfig{})
	if err != nil {
		glog.Fatalf("初始化简历抽取器失败: %v", err)
	}
	jobExtractor := extractor.NewJobExtractor()

	var resumeExt processor.ResumeExtractor = resumeExtractor
	var jobExt processor.JobExtractor = jobExtractor
	if cfg.LLM.Enabled {
		chatModel, err := extractor.NewOpenAIChatModel(cfg.LLM)
		if err != nil {
			glog.Fatalf("初始化LLM对话模型失败: %v", err)
		}
		llmExtractor, err := extractor.NewLLMExtractor(chatModel, resumeExtractor, jobExtractor)
		if err != nil {
			glog.Fatalf("初始化LLM抽取器失败: %v", err)
		}
		resumeExt = llmExtractor
		jobExt = llmExtractor
		glog.Infof("启用LLM辅助抽取, 模型: %s", cfg.LLM.Model)
	}

	scorerOpts := []scorer.Option{scorer.WithThreshold(cfg.Scorer.Threshold)}
	if cfg.Scorer.LexicalFallback {
		scorerOpts = append(scorerOpts, scorer.WithLexicalFallback(true))
	}
	alignScorer, err := scorer.NewScorer(index, scorerOpts...)
	if err != nil {
		glog.Fatalf("初始化评分器失败: %v", err)
	}

	rend := renderer.NewRenderer(cfg.Optimizer.WrapWidth)
	opt, err := optimizer.NewOptimizer(rend.Estimator(),
		optimizer.WithPageBudget(cfg.Optimizer.PageBudgetLines))
	if err != nil {
		glog.Fatalf("初始化优化器失败: %v", err)
	}

	registry, err := rawtext.NewRegistry(ctx)
	if err != nil {
		glog.Fatalf("初始化文本提取器失败: %v", err)
	}

	service, err := processor.NewService(resumeExt, jobExt, alignScorer, opt,
		processor.WithStorage(storageManager),
		processor.WithRenderer(rend),
	)
	if err != nil {
		glog.Fatalf("初始化处理服务失败: %v", err)
	}

	tailorHandler, err := handler.NewTailorHandler(service, registry)
	if err != nil {
		glog.Fatalf("初始化Handler失败: %v", err)
	}

	h := server.New(
		server.WithHostPorts(fmt.Sprintf(":%d", cfg.Server.Port)),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(func(c context.Context, rc *app.RequestContext) {
		start := time.Now()
		rc.Next(c)
		glog.CtxInfof(c, "%s %s -> %d (%s)",
			string(rc.Method()), string(rc.Path()), rc.Response.StatusCode(), time.Since(start))
	})

	router.RegisterRoutes(h, tailorHandler, cfg.Server.APIToken)
	glog.Infof("HTTP服务器启动中, 监听端口: %d", cfg.Server.Port)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号, 正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}
