package app

import (
	"log/slog"
	"os"

	"braid/internal/domain"
	"braid/internal/relay"
	groupsvc "braid/internal/services/group"
	identitysvc "braid/internal/services/identity"
	messagesvc "braid/internal/services/message"
	prekeysvc "braid/internal/services/prekey"
	sessionsvc "braid/internal/services/session"
	"braid/internal/store"
	"braid/internal/trace"
)

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Identity domain.IdentityService
	PreKeys  domain.PreKeyService
	Sessions domain.SessionService
	Messages domain.MessageService
	Groups   domain.GroupService
	Profiles domain.ProfileStore
	Relay    domain.RelayClient
	Config   Config
}

// NewWire constructs the dependency graph from cfg. The relay client is nil
// when no relay URL is configured; commands that need one check for that.
func NewWire(cfg Config) (*Wire, error) {
	cfg = cfg.withDefaults()

	identityStore := store.NewIdentityFileStore(cfg.Home)
	prekeyStore := store.NewPreKeyFileStore(cfg.Home)
	publishedStore := store.NewPublishedKeysFileStore(cfg.Home)
	sessionStore := store.NewSessionFileStore(cfg.Home)
	ratchetStore := store.NewRatchetFileStore(cfg.Home)
	senderKeyStore := store.NewSenderKeyFileStore(cfg.Home)
	profileStore := store.NewProfileFileStore(cfg.Home)

	var sink *trace.Sink
	if cfg.Trace {
		sink = trace.NewSink(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	var rc domain.RelayClient
	if cfg.RelayURL != "" {
		rc = relay.NewHTTP(cfg.RelayURL, cfg.HTTP)
	}

	identitySvc := identitysvc.New(identityStore)
	prekeySvc := prekeysvc.New(identityStore, prekeyStore, publishedStore)

	w := &Wire{
		Identity: identitySvc,
		PreKeys:  prekeySvc,
		Profiles: profileStore,
		Relay:    rc,
		Config:   cfg,
	}
	if rc == nil {
		return w, nil
	}

	sessionSvc := sessionsvc.New(identityStore, sessionStore, rc, sink)
	messageSvc := messagesvc.New(
		identityStore, prekeyStore, ratchetStore, sessionSvc, rc, sink, cfg.SkippedKeyCap,
	)
	groupSvc := groupsvc.New(senderKeyStore, messageSvc, rc, sink, cfg.SkippedKeyCap)
	messageSvc.AttachGroupHandler(groupSvc)

	w.Sessions = sessionSvc
	w.Messages = messageSvc
	w.Groups = groupSvc
	return w, nil
}
