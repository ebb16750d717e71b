package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ivlev/affectmark/internal/app"
	"github.com/ivlev/affectmark/internal/config"
	"github.com/ivlev/affectmark/internal/player"
	"github.com/ivlev/affectmark/internal/system"
	"github.com/ivlev/affectmark/internal/ui"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [RATER_ID]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Settings come from affectmark.yaml (or $%s) and %s_* variables.\n",
			config.EnvConfigFile, config.EnvPrefix)
		pflag.PrintDefaults()
	}
	pflag.Parse()

	cfg, err := config.Load(viper.New())
	if err != nil {
		log.Fatalf("[-] Config error: %v", err)
	}
	if pflag.NArg() > 0 {
		cfg.RaterID = pflag.Arg(0)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[-] Config error: %v", err)
	}

	if cfg.Video != "" {
		video, err := system.ResolveVideo(cfg.Video)
		if err != nil {
			log.Printf("[!] Configured video %s is not usable: %v", cfg.Video, err)
		} else if video != cfg.Video {
			log.Printf("[*] Selected video: %s", video)
		}
		cfg.Video = video
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	target := player.ResolveRenderTarget(cfg.MPV.WindowID)
	log.Printf("[*] Rater %s | output: %s", cfg.RaterID, outputDirLabel(cfg.OutputDir))
	log.Printf("[*] Render target: %s", target)

	// not bound to ctx: on a signal the session still asks mpv to quit
	mpv, err := player.StartMPV(context.Background(), player.MPVOptions{
		Binary:       cfg.MPV.Path,
		Socket:       cfg.MPV.Socket,
		Target:       target,
		StartTimeout: cfg.MPV.StartTimeout,
	})
	if err != nil {
		log.Fatalf("[-] Media engine error: %v", err)
	}

	term := ui.NewTerminal(os.Stdin, os.Stdout, os.Stderr, mpv)
	session := app.NewSession(cfg, mpv, term)

	err = app.Run(ctx, session,
		func(ctx context.Context) error {
			return term.ReadCommands(ctx, session.Post)
		},
		func(ctx context.Context) error {
			if err := mpv.Watch(ctx, 3*time.Second); err != nil {
				log.Printf("[!] mpv: %v", err)
			}
			session.Post(app.Close{})
			return nil
		},
	)
	if err != nil {
		log.Printf("[!] Session ended with error: %v", err)
		stop()
		os.Exit(1)
	}
	log.Printf("[*] Session %s closed", session.ID)
}

func outputDirLabel(dir string) string {
	if dir == "" {
		return "next to each video"
	}
	return dir
}
