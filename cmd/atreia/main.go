package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime/debug"

	sloggger "github.com/kaelthys/atreia/cmd/atreia/log"
	"github.com/inkeliz/gowebview"
	"github.com/kaelthys/atreia/internal/bot"
	"github.com/kaelthys/atreia/internal/config"
	"github.com/kaelthys/atreia/internal/event"
	"github.com/kaelthys/atreia/internal/remote/discord"
	ngrokremote "github.com/kaelthys/atreia/internal/remote/ngrok"
	"github.com/kaelthys/atreia/internal/remote/telegram"
	"github.com/kaelthys/atreia/internal/server"
	"github.com/kaelthys/atreia/internal/utils"
	"golang.org/x/sync/errgroup"
)

// wrapWithRecover wraps a function with panic recovery logic
func wrapWithRecover(logger *slog.Logger, f func() error) func() error {
	return func() error {
		defer func() {
			if r := recover(); r != nil {
				stackTrace := debug.Stack()
				errMsg := fmt.Sprintf("panic recovered: %v\nStacktrace: %s", r, stackTrace)
				logger.Error(errMsg)
				sloggger.FlushLog()
			}
		}()
		return f()
	}
}

func main() {
	err := config.Load()
	if err != nil {
		utils.ShowDialog("Error loading configuration", err.Error())
		log.Fatalf("Error loading configuration: %s", err.Error())
		return
	}

	logger, err := sloggger.NewLogger(config.Atreia.Debug.Log, config.Atreia.LogSaveDirectory, "")
	if err != nil {
		log.Fatalf("Error starting logger: %s", err.Error())
	}
	defer sloggger.FlushAndClose()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fatal error detected, Atreia will close with the following error: %v\n Stacktrace: %s", r, debug.Stack())
			logger.Error(err.Error())
			sloggger.FlushAndClose()
			utils.ShowDialog("Atreia error :(", fmt.Sprintf("Atreia will close due to an unexpected error, please check the latest log file for more info!\n %s", err.Error()))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	eventListener := event.NewListener(logger)
	manager := bot.NewSupervisorManager(logger, eventListener)

	srv, err := server.New(logger, manager)
	if err != nil {
		log.Fatalf("Error starting local server: %s", err.Error())
	}

	var ngrokTunnel *ngrokremote.Tunnel
	if config.Atreia.Ngrok.Enabled {
		if config.Atreia.Ngrok.Authtoken == "" && os.Getenv("NGROK_AUTHTOKEN") == "" {
			logger.Warn("ngrok enabled but no authtoken set; skipping tunnel start")
		} else {
			opts := ngrokremote.Options{
				LocalAddr:     "http://localhost:8087",
				Authtoken:     config.Atreia.Ngrok.Authtoken,
				Region:        config.Atreia.Ngrok.Region,
				Domain:        config.Atreia.Ngrok.Domain,
				BasicAuthUser: config.Atreia.Ngrok.BasicAuthUser,
				BasicAuthPass: config.Atreia.Ngrok.BasicAuthPass,
			}
			tunnel, err := ngrokremote.Start(ctx, opts)
			if err != nil {
				logger.Error("ngrok tunnel failed to start", slog.Any("error", err))
			} else {
				logger.Info("ngrok tunnel established", slog.String("url", tunnel.URL()))
				if config.Atreia.Ngrok.SendURL {
					go event.Send(event.NgrokTunnel(tunnel.URL()))
				}
			}
			ngrokTunnel = tunnel
		}
	}

	g.Go(wrapWithRecover(logger, func() error {
		defer cancel()

		width := config.Atreia.WindowWidth
		if width <= 0 {
			width = 1040
		}
		height := config.Atreia.WindowHeight
		if height <= 0 {
			height = 720
		}

		w, err := gowebview.New(&gowebview.Config{URL: "http://localhost:8087", WindowConfig: &gowebview.WindowConfig{
			Title: "Atreia",
			Size: &gowebview.Point{
				X: int64(width),
				Y: int64(height),
			},
		}})
		if err != nil {
			if w != nil {
				w.Destroy()
			}
			return fmt.Errorf("error creating webview: %w", err)
		}

		defer w.Destroy()
		w.Run()

		return nil
	}))

	if config.Atreia.Discord.Enabled {
		discordBot, err := discord.NewBot(
			config.Atreia.Discord.Token,
			config.Atreia.Discord.ChannelID,
			manager,
			config.Atreia.Discord.UseWebhook,
			config.Atreia.Discord.WebhookURL,
		)
		if err != nil {
			logger.Error("Discord could not been initialized", slog.Any("error", err))
			return
		}

		eventListener.Register(discordBot.Handle)
		if !config.Atreia.Discord.UseWebhook {
			g.Go(wrapWithRecover(logger, func() error {
				return discordBot.Start(ctx)
			}))
		}
	}

	if config.Atreia.Telegram.Enabled {
		telegramBot, err := telegram.NewBot(config.Atreia.Telegram.Token, config.Atreia.Telegram.ChatID, logger, manager)
		if err != nil {
			logger.Error("Telegram could not been initialized", slog.Any("error", err))
			return
		}

		eventListener.Register(telegramBot.Handle)
		g.Go(wrapWithRecover(logger, func() error {
			defer telegramBot.Close()
			return telegramBot.Start(ctx)
		}))
	}

	g.Go(wrapWithRecover(logger, func() error {
		defer cancel()
		return srv.Listen(8087)
	}))

	g.Go(wrapWithRecover(logger, func() error {
		defer cancel()
		return eventListener.Listen(ctx)
	}))

	g.Go(wrapWithRecover(logger, func() error {
		<-ctx.Done()
		logger.Info("Atreia shutting down...")
		cancel()
		manager.StopAll()
		err = srv.Stop()
		if err != nil {
			logger.Error("error stopping local server", slog.Any("error", err))
		}
		if ngrokTunnel != nil {
			if closeErr := ngrokTunnel.Close(); closeErr != nil {
				logger.Error("error stopping ngrok tunnel", slog.Any("error", closeErr))
			}
		}

		return err
	}))

	err = g.Wait()
	if err != nil {
		cancel()
		logger.Error("Error running Atreia", slog.Any("error", err))
		return
	}

	sloggger.FlushAndClose()
}
