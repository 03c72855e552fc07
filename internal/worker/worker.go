package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	eventpkg "github.com/geofeed/backend/internal/event"
	"github.com/geofeed/backend/internal/lib"
	metricspkg "github.com/geofeed/backend/internal/metrics"
	ormpkg "github.com/geofeed/backend/internal/orm"
	templatepkg "github.com/geofeed/backend/internal/template"
)

// Consumer yields broker events one at a time.
type Consumer interface {
	ReadMessage(ctx context.Context) (string, string, error)
}

type Mailer interface {
	SendHTML(from string, to string, subject string, body string) error
}

type Store interface {
	lib.ReputationStore
	SelectUserByID(ctx context.Context, id string) (*ormpkg.User, error)
	UpdateUserReputation(ctx context.Context, userID uuid.UUID, reputation int64) error
	DeleteExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error)
}

type Worker struct {
	context   context.Context
	cancel    func()
	waitGroup sync.WaitGroup
	logger    *zap.Logger
	router    *Router
	consumer  Consumer
	mailer    Mailer
	database  Store
	metrics   *metricspkg.Metrics
	config    *Config
}

func NewWorker(logger *zap.Logger, consumer Consumer, mailer Mailer, database Store, metrics *metricspkg.Metrics, config *Config) *Worker {
	context, cancel := context.WithCancel(context.Background())
	this := &Worker{
		context:  context,
		cancel:   cancel,
		logger:   logger,
		consumer: consumer,
		mailer:   mailer,
		database: database,
		metrics:  metrics,
		config:   config,
	}
	this.router = NewRouter(
		map[string][]EventHandler{
			eventpkg.AUTHORIZATION_LOGIN: {
				this.AuthorizationLoginHandler,
			},
			eventpkg.AUTHORIZATION_REQUEST_PASSWORD_RESET: {
				this.AuthorizationRequestPasswordResetHandler,
			},
			eventpkg.AUTHORIZATION_REGISTER: {
				this.AuthorizationRegisterHandler,
			},
			eventpkg.POST_VOTED: {
				this.VoteHandler,
			},
			eventpkg.COMMENT_VOTED: {
				this.VoteHandler,
			},
		},
	)
	return this
}

func (this *Worker) Start() error {
	this.logger.Info("starting worker")

	this.waitGroup.Add(1)
	go this.worker()

	if this.config.CleanupInterval > 0 {
		this.waitGroup.Add(1)
		go this.sessionCleaner()
	}
	return nil
}

func (this *Worker) Stop() error {
	this.logger.Info("stopping worker")

	this.cancel()
	this.waitGroup.Wait()
	return nil
}

func (this *Worker) worker() {
	defer this.waitGroup.Done()

	for {
		select {
		case <-this.context.Done():
			return
		case <-time.After(1 * time.Millisecond):
		}

		event, data, err := this.consumer.ReadMessage(this.context)
		if err != nil {
			if this.context.Err() != nil {
				return
			}
			this.logger.Error("error receiving kafka message", zap.Error(err))
			continue
		}

		this.handle(event, []byte(data))
	}
}

func (this *Worker) handle(event string, data []byte) {
	handled, err := this.router.Handle(this.context, event, data)
	if !handled {
		this.logger.Debug("no handler for event", zap.String("event", event))
		return
	}

	this.metrics.EventsHandled.WithLabelValues(event, metricspkg.Result(err)).Inc()
	if err != nil {
		this.logger.Error("error handling kafka message", zap.String("event", event), zap.Error(err))
	}
}

func (this *Worker) sessionCleaner() {
	defer this.waitGroup.Done()

	ticker := time.NewTicker(this.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-this.context.Done():
			return
		case <-ticker.C:
		}

		count, err := this.database.DeleteExpiredSessions(this.context, this.config.SessionTTL)
		if err != nil {
			this.logger.Error("error deleting expired sessions", zap.Error(err))
			continue
		}
		if count > 0 {
			this.logger.Info("deleted expired sessions", zap.Int64("count", count))
		}
	}
}

func (this *Worker) AuthorizationRegisterHandler(ctx context.Context, data []byte) error {
	var message eventpkg.AuthorizationRegisterMessage
	err := json.Unmarshal(data, &message)
	if err != nil {
		return err
	}

	user, err := this.selectUser(ctx, message.ID)
	if err != nil {
		return err
	}

	content, err := templatepkg.Render("mail_confirm.html", map[string]any{
		"User": user.Username,
		"URL":  fmt.Sprintf("%s/%s", this.config.VerificationURL, url.PathEscape(user.VerificationToken)),
	})
	if err != nil {
		return err
	}

	err = this.mailer.SendHTML(this.config.MailFrom, user.Email, "Confirm your email", content)
	if err != nil {
		return err
	}

	this.logger.Info("sent email verification email", zap.String("user_id", user.ID.String()))
	return nil
}

func (this *Worker) AuthorizationLoginHandler(ctx context.Context, data []byte) error {
	var message eventpkg.AuthorizationLoginMessage
	err := json.Unmarshal(data, &message)
	if err != nil {
		return err
	}

	this.logger.Info(
		"user logged in",
		zap.String("id", message.ID),
		zap.String("session_id", message.SessionID),
		zap.String("user_agent", message.UserAgent),
	)
	return nil
}

func (this *Worker) AuthorizationRequestPasswordResetHandler(ctx context.Context, data []byte) error {
	var message eventpkg.AuthorizationRequestPasswordReset
	err := json.Unmarshal(data, &message)
	if err != nil {
		return err
	}

	user, err := this.selectUser(ctx, message.ID)
	if err != nil {
		return err
	}
	if user.ResetToken == "" {
		return errors.New("user has no pending password reset")
	}

	hours := 1
	if user.ResetTokenExpiresAt != nil {
		remaining := time.Until(*user.ResetTokenExpiresAt).Round(time.Hour)
		if remaining >= time.Hour {
			hours = int(remaining.Hours())
		}
	}

	content, err := templatepkg.Render("mail_recover.html", map[string]any{
		"User":  user.Username,
		"URL":   fmt.Sprintf("%s?token=%s", this.config.PasswordResetURL, url.QueryEscape(user.ResetToken)),
		"Hours": hours,
	})
	if err != nil {
		return err
	}

	err = this.mailer.SendHTML(this.config.MailFrom, user.Email, "Password reset request", content)
	if err != nil {
		return err
	}

	this.logger.Info("sent password reset email", zap.String("user_id", user.ID.String()))
	return nil
}

// VoteHandler recomputes the reputation of the author of the voted post or
// comment.
func (this *Worker) VoteHandler(ctx context.Context, data []byte) error {
	var message eventpkg.VoteMessage
	err := json.Unmarshal(data, &message)
	if err != nil {
		return err
	}

	user, err := this.selectUser(ctx, message.AuthorID)
	if err != nil {
		return err
	}

	reputation, err := lib.CalculateUserReputation(ctx, this.database, user)
	if err != nil {
		return err
	}

	err = this.database.UpdateUserReputation(ctx, user.ID, reputation)
	if err != nil {
		return err
	}

	this.logger.Debug(
		"updated reputation",
		zap.String("user_id", user.ID.String()),
		zap.Int64("reputation", reputation),
	)
	return nil
}

func (this *Worker) selectUser(ctx context.Context, id string) (*ormpkg.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}

	return this.database.SelectUserByID(ctx, userID.String())
}
