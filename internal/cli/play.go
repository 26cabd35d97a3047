package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/storyteller/internal/model"
	"github.com/rcliao/storyteller/internal/prompt"
	"github.com/rcliao/storyteller/internal/session"
)

const playHelp = `commands:
  :find <text>      show where text occurs in the story
  :quote <text>     continue the next turn from the passage containing text
  :rewind <seq>     drop every message after seq
  :roles            list characters found in the story
  :memory           show working memory
  :style            show the style fingerprint
  :length short|long
  :image <prompt>   illustrate a scene
  :id               print the session ID
  :quit
Ctrl-C cancels a reply in progress; at the prompt it exits.`

func init() {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play an interactive story",
		Long: "Start (or resume) a narrated story. Each line you type is a turn; lines\n" +
			"may carry directives, e.g. \"enter the forest/battle(60%),dialogue(40%)\".\n\n" + playHelp,
		Run: runPlay,
	}

	cmd.Flags().StringP("world", "w", "", "World book file (required)")
	cmd.Flags().StringP("role", "r", "", "Player character name (required)")
	cmd.Flags().String("role-desc", "", "Player character description")
	cmd.Flags().StringP("length", "l", model.LengthShort, "Reply length: short or long")
	cmd.Flags().String("opening", "", "Custom opening scene to expand")
	cmd.Flags().String("resume", "", "Resume a stored session by ID")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (default: $STORYTELLER_METRICS_ADDR)")

	cmd.MarkFlagRequired("world")
	cmd.MarkFlagRequired("role")

	RootCmd.AddCommand(cmd)
}

func runPlay(cmd *cobra.Command, args []string) {
	worldPath, _ := cmd.Flags().GetString("world")
	roleName, _ := cmd.Flags().GetString("role")
	roleDesc, _ := cmd.Flags().GetString("role-desc")
	length, _ := cmd.Flags().GetString("length")
	opening, _ := cmd.Flags().GetString("opening")
	resume, _ := cmd.Flags().GetString("resume")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	if metricsAddr == "" {
		metricsAddr = cfg.MetricsAddr
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	world, err := readText(cmd, worldPath, nil)
	if err != nil {
		exitErr("read world book", err)
	}

	counter, err := prompt.NewTokenCounter()
	if err != nil {
		log.Warn("tokenizer unavailable, estimating token counts", zap.Error(err))
	}
	builder, err := prompt.New(world, model.Role{Name: roleName, Description: roleDesc}, prompt.Options{
		Length:         length,
		WorldBookLimit: cfg.WorldBookLimit,
		MemoryBudget:   cfg.MemoryBudget,
		Counter:        counter,
	})
	if err != nil {
		exitErr("prompt", err)
	}

	st, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	if metricsAddr != "" {
		startMetricsServer(metricsAddr)
	}

	opts := session.Options{
		HistoryTurns:   cfg.HistoryTurns,
		MaxTokensShort: cfg.MaxTokensShort,
		MaxTokensLong:  cfg.MaxTokensLong,
		StyleEvery:     cfg.StyleEvery,
		MemoryMaxAge:   cfg.MemoryMaxAge.Duration(),
	}
	client := newClient()

	var sess *session.Session
	if resume != "" {
		sess, err = session.Resume(ctx, st, builder, client, log, opts, resume)
		if err != nil {
			exitErr("resume", err)
		}
		fmt.Fprintf(out, "%s\n\n", lastParagraph(sess.Story()))
	} else {
		sess = session.New(st, builder, client, log, opts)
	}
	log.Info("session ready", zap.String("session", sess.ID()), zap.String("db", cfg.DB))

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		for range sigs {
			if !sess.Abort() {
				log.Sync()
				fmt.Fprintln(os.Stderr)
				os.Exit(130)
			}
		}
	}()

	write := func(chunk string) error {
		_, err := io.WriteString(out, chunk)
		return err
	}

	if resume == "" {
		if _, err := sess.Start(ctx, opening, write); err != nil {
			reportTurnError(out, err)
			if !errors.Is(err, model.ErrCancelled) {
				exitErr("opening", err)
			}
		}
		fmt.Fprint(out, "\n\n")
	}

	r := &repl{sess: sess, out: out}
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if !r.command(ctx, line) {
				break
			}
			continue
		}
		r.turn(ctx, line, write)
	}
	fmt.Fprintf(out, "\nsession %s\n", sess.ID())
}

type repl struct {
	sess  *session.Session
	out   io.Writer
	quote string
}

func (r *repl) turn(ctx context.Context, line string, write func(string) error) {
	quote := r.quote
	r.quote = ""
	fmt.Fprintln(r.out)
	if _, err := r.sess.Send(ctx, session.SendParams{Input: line, Quote: quote}, write); err != nil {
		reportTurnError(r.out, err)
	}
	fmt.Fprint(r.out, "\n\n")
}

// command runs one colon command and reports whether the loop continues.
func (r *repl) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "quit", "q", "exit":
		return false
	case "help", "h":
		fmt.Fprintln(r.out, playHelp)
	case "id":
		fmt.Fprintln(r.out, r.sess.ID())
	case "find":
		w, err := r.sess.Locate(arg)
		if err != nil {
			fmt.Fprintf(r.out, "not found: %v\n", err)
			break
		}
		fmt.Fprintf(r.out, "[%s %d-%d]\n%s\n", w.Strategy, w.Start, w.End, w.Text)
	case "quote":
		if _, err := r.sess.Locate(arg); err != nil {
			fmt.Fprintf(r.out, "not found: %v\n", err)
			break
		}
		r.quote = arg
		fmt.Fprintln(r.out, "next turn continues from that passage")
	case "rewind":
		seq, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintln(r.out, "usage: :rewind <seq>")
			break
		}
		removed, err := r.sess.Rewind(ctx, seq)
		if err != nil {
			fmt.Fprintf(r.out, "rewind failed: %v\n", err)
			break
		}
		fmt.Fprintf(r.out, "removed %d messages\n", removed)
	case "roles":
		fmt.Fprintln(r.out, strings.Join(r.sess.Roles(), "\n"))
	case "memory":
		m := r.sess.Memory()
		fmt.Fprintf(r.out, "%s\n\n%s\n", m.Characters, m.Contexts)
	case "style":
		fp := r.sess.Style()
		if fp == nil {
			fmt.Fprintln(r.out, "story too short to fingerprint")
			break
		}
		printJSONTo(r.out, fp)
	case "length":
		if err := r.sess.SetLength(arg); err != nil {
			fmt.Fprintf(r.out, "%v\n", err)
		}
	case "image":
		images, err := r.sess.Illustrate(ctx, arg, 1)
		if err != nil {
			fmt.Fprintf(r.out, "illustrate failed: %v\n", err)
			break
		}
		fmt.Fprintln(r.out, strings.Join(images, "\n"))
	default:
		fmt.Fprintf(r.out, "unknown command %q (:help)\n", name)
	}
	return true
}

func reportTurnError(out io.Writer, err error) {
	if errors.Is(err, model.ErrCancelled) {
		fmt.Fprint(out, "\n(cancelled)")
		return
	}
	log.Warn("turn failed", zap.Error(err))
	fmt.Fprintf(out, "\nsend failed: %v", err)
}

func lastParagraph(story string) string {
	paras := paragraphs(story)
	if len(paras) == 0 {
		return ""
	}
	return paras[len(paras)-1]
}

func startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	go func() {
		log.Info("metrics server listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", zap.Error(err))
		}
	}()
}
