package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"viki/app/config"
	"viki/app/service/action"
	"viki/app/service/convlog"
	"viki/app/service/ctxstore"
	"viki/app/service/engine"
	"viki/app/service/input"
	"viki/app/service/memory"
	"viki/app/service/nlg"
	"viki/app/service/nlu"
	"viki/app/service/output"
	"viki/app/service/policy"
	"viki/app/service/queue"
	"viki/app/util/mylog"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, func(di *do.Injector) (nlu.Classifier, error) {
		return nlu.NewClassifier(appCtx, cfg.LLM.NLU)
	})
	do.Provide(di, func(di *do.Injector) (nlg.Generator, error) {
		return nlg.NewGenerator(appCtx, cfg.LLM.NLG, cfg.Assistant.Name)
	})
	do.Provide(di, ctxstore.New)
	do.Provide(di, convlog.New)
	do.Provide(di, memory.New)
	do.Provide(di, policy.New)
	do.Provide(di, action.New)
	do.Provide(di, input.New)
	do.Provide(di, output.New)
	do.Provide(di, queue.New)
	do.Provide(di, engine.New)

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	do.MustInvoke[*engine.Service](di).Run(appCtx)
}
