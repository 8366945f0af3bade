package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"netmesh/core"
	"netmesh/pkg/config"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{Use: "netmeshd"}
	rootCmd.PersistentFlags().String("env", "", "environment name merged over the default config")
	rootCmd.AddCommand(listenCmd())
	rootCmd.AddCommand(sendCmd())
	rootCmd.AddCommand(evictCmd())
	rootCmd.AddCommand(statsCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	env, _ := cmd.Flags().GetString("env")
	return config.Load(env)
}

func setupLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			logrus.SetOutput(f)
		}
	}
}

func createNet(cfg *config.Config) (*core.Net, error) {
	return core.Create(core.CreateOptions{
		Host:          cfg.Network.ListenHost,
		Port:          cfg.Network.ListenPort,
		UseLRUCache:   cfg.Network.UseLRUCache,
		LRUCacheSize:  cfg.Network.LRUCacheSize,
		HashKeyHex:    cfg.Crypto.HashKeyHex,
		SigningSKHex:  cfg.Crypto.SigningSKHex,
		MaxFrameBytes: cfg.Network.MaxFrameBytes,
		StatsWindow:   cfg.Stats.WindowSize,
	})
}

func listenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "bind the node's TCP listener and serve inbound peer traffic",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			setupLogging(cfg)

			n, err := createNet(cfg)
			if err != nil {
				return err
			}
			defer n.Close()

			n.Listen(func(payload string, host string, port int, meta *core.RequestMetadata) {
				logrus.Infof("netmesh: received %d bytes from %s:%d", len(payload), host, port)
			})

			if cfg.Debug.HTTPBindAddr != "" {
				debug := core.NewDebugServer(cfg.Debug.HTTPBindAddr, n)
				go func() {
					if err := debug.ListenAndServe(); err != nil {
						logrus.WithError(err).Warn("netmesh: debug server stopped")
					}
				}()
				defer debug.Close()
			}

			fmt.Printf("listening on %s:%d\n", cfg.Network.ListenHost, cfg.Network.ListenPort)
			waitForSignal()
			return nil
		},
	}
	return cmd
}

func sendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send [host] [port] [message]",
		Short: "sign, envelope, and send a single message to a peer",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			setupLogging(cfg)

			n, err := createNet(cfg)
			if err != nil {
				return err
			}
			defer n.Close()

			host := args[0]
			var port int
			if _, err := fmt.Sscanf(args[1], "%d", &port); err != nil {
				return fmt.Errorf("invalid port %q: %w", args[1], err)
			}

			senderID, _ := cmd.Flags().GetString("sender-id")
			headerJSON, _ := json.Marshal(map[string]any{"sender_id": senderID})

			done := make(chan error, 1)
			err = n.SendWithHeader(host, port, core.HeaderVersionV1, string(headerJSON), args[2], func(err error) {
				done <- err
			})
			if err != nil {
				return err
			}

			select {
			case err := <-done:
				if err != nil {
					return fmt.Errorf("send failed: %w", err)
				}
				fmt.Println("sent")
				return nil
			case <-time.After(10 * time.Second):
				return fmt.Errorf("send timed out")
			}
		},
	}
	cmd.Flags().String("sender-id", "netmeshd", "sender identifier carried in the message header")
	return cmd
}

func evictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evict [host] [port]",
		Short: "drop a cached connection to a peer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			n, err := createNet(cfg)
			if err != nil {
				return err
			}
			defer n.Close()

			var port int
			if _, err := fmt.Sscanf(args[1], "%d", &port); err != nil {
				return fmt.Errorf("invalid port %q: %w", args[1], err)
			}
			n.EvictSocket(args[0], port)
			fmt.Println("evicted")
			return nil
		},
	}
	return cmd
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "print the node's rolling send/receive stats as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			n, err := createNet(cfg)
			if err != nil {
				return err
			}
			defer n.Close()

			out, err := json.MarshalIndent(n.Stats(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	return cmd
}

func waitForSignal() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()
}
