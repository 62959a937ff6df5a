// Command azrael-worker is one replica of the Worker Pool (spec §4.4): a
// stateless rigid-body solver that subscribes to internal/wireproto's
// NATS subject under a shared queue group, so NATS fans each island
// request out to exactly one idle replica, and answers with
// internal/solver.Step's result. Several instances of this binary make
// up the fleet api/v1alpha1.WorkerFleet scales.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/azrael-sim/azrael/internal/solver"
	"github.com/azrael-sim/azrael/internal/wireproto"
)

var jsonc = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	var natsURL string
	var subject string
	var queueGroup string
	var devLogging bool
	flag.StringVar(&natsURL, "nats-url", nats.DefaultURL, "NATS server URL the worker pool connects over")
	flag.StringVar(&subject, "subject", wireproto.Subject, "NATS subject to subscribe to")
	flag.StringVar(&queueGroup, "queue-group", wireproto.QueueGroup, "NATS queue group shared by every worker replica")
	flag.BoolVar(&devLogging, "dev", false, "use zap's human-readable development logger")
	flag.Parse()

	var logger *zap.Logger
	var err error
	if devLogging {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	nc, err := nats.Connect(natsURL)
	if err != nil {
		log.Fatalw("connect nats", "url", natsURL, "error", err)
	}
	defer nc.Close()

	sub, err := nc.QueueSubscribe(subject, queueGroup, func(msg *nats.Msg) {
		handleRequest(log, msg)
	})
	if err != nil {
		log.Fatalw("subscribe", "subject", subject, "queueGroup", queueGroup, "error", err)
	}
	defer sub.Unsubscribe()

	log.Infow("azrael-worker listening", "natsURL", natsURL, "subject", subject, "queueGroup", queueGroup)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("azrael-worker shutting down")
}

// handleRequest decodes one IslandRequest, runs it through solver.Step
// (a pure function: no state survives across requests, per spec §4.4),
// and publishes the reply back on msg.Reply. Errors never crash the
// worker — a malformed request yields an error reply instead, since a
// request the solver can't make sense of still deserves an answer
// rather than a dropped connection for every other island in flight.
func handleRequest(log *zap.SugaredLogger, msg *nats.Msg) {
	var req wireproto.IslandRequest
	if err := jsonc.Unmarshal(msg.Data, &req); err != nil {
		log.Errorw("unmarshal island request", "error", err)
		reply := wireproto.IslandReply{Error: fmt.Sprintf("unmarshal request: %v", err)}
		respond(log, msg, reply)
		return
	}

	reply := solver.Step(req)
	respond(log, msg, reply)
}

func respond(log *zap.SugaredLogger, msg *nats.Msg, reply wireproto.IslandReply) {
	data, err := jsonc.Marshal(reply)
	if err != nil {
		log.Errorw("marshal island reply", "islandId", reply.IslandID, "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		log.Errorw("respond", "islandId", reply.IslandID, "error", err)
	}
}
