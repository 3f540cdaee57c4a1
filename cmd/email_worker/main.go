package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/campusconnect/campus-connect/config"
	"github.com/campusconnect/campus-connect/pkg/helpers"
	"github.com/campusconnect/campus-connect/pkg/mailer"
	mailtpl "github.com/campusconnect/campus-connect/pkg/mailer/templates"
)

const sendTimeout = 15 * time.Second

// outcome tells the consume loop what to do with a delivery.
type outcome int

const (
	ack outcome = iota
	drop
	requeue
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	sender, err := newSender(cfg)
	if err != nil {
		logger.Fatal(err.Error())
	}

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue, 16)
	if err != nil {
		logger.Fatalf("amqp: %v", err)
	}
	defer consumer.Close()

	msgs, err := consumer.Deliveries()
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	ctx := context.Background()

	go func() {
		for msg := range msgs {
			switch process(ctx, sender, logger, msg.Body) {
			case ack:
				_ = msg.Ack(false)
			case drop:
				_ = msg.Nack(false, false)
			case requeue:
				_ = msg.Nack(false, true)
			}
		}
		close(done)
	}()

	logger.WithField("queue", cfg.RabbitMQEmailQueue).Info("email worker listening")
	<-stop
	logger.Info("shutting down...")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

type configError string

func (e configError) Error() string { return string(e) }

func newSender(cfg *config.Config) (mailer.Sender, error) {
	switch cfg.MailProvider {
	case "smtp":
		if cfg.SMTPHost == "" || cfg.SMTPFrom == "" {
			return nil, configError("SMTP not configured")
		}
		return mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom), nil
	default:
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
			return nil, configError("Mailgun not configured")
		}
		return mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender, cfg.MailgunAPIBase), nil
	}
}

// process renders and sends one queued job. Malformed or unrenderable jobs
// are dropped; send failures are requeued.
func process(ctx context.Context, sender mailer.Sender, logger *logrus.Logger, body []byte) outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		helpers.LogError(logger, "bad message", err, nil)
		return drop
	}
	if job.To == "" {
		logger.Warn("email job without recipient")
		return drop
	}
	helpers.EnsureRecipient(&job)

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			helpers.LogError(logger, "render failed", err, logrus.Fields{"template": job.Template})
			return drop
		}
		subject, text, html = s, t, h
		if subject == "" {
			subject = helpers.SubjectFor(&job)
		}
	}

	c, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := sender.Send(c, job.To, subject, text, html); err != nil {
		helpers.LogError(logger, "send failed", err, logrus.Fields{"to": job.To, "template": job.Template})
		return requeue
	}
	helpers.LogInfo(logger, "email sent", logrus.Fields{"to": job.To, "template": job.Template})
	return ack
}
