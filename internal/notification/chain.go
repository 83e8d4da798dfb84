package notification

import (
	"eventsite_backend/internal/email"
	"eventsite_backend/platform/config"
	"eventsite_backend/platform/logger"
)

// ChainSettings is the configuration the provider chain is built from.
type ChainSettings interface {
	config.EmailConfig
	config.GraphMailConfig
	config.BrevoConfig
	config.SMTPConfig
}

// BuildChain assembles the providers whose credentials are present, in
// order: Graph mailbox, Brevo, SMTP relay. Each is wrapped in a circuit
// breaker. With email disabled the chain is empty and dispatches are logged only.
func BuildChain(cfg ChainSettings, log *logger.Logger) ChainConfig {
	if !cfg.GetEmailEnabled() {
		log.Info("email disabled, notifications will be logged only")
		return ChainConfig{}
	}

	from := email.From{Name: cfg.GetEmailFromName(), Address: cfg.GetEmailFromAddress()}
	timeout := cfg.GetEmailTimeout()

	var providers []email.Provider
	if cfg.IsGraphMailEnabled() {
		providers = append(providers, email.NewGraphProvider(email.GraphConfig{
			TenantID:     cfg.GetGraphTenantID(),
			ClientID:     cfg.GetGraphClientID(),
			ClientSecret: cfg.GetGraphClientSecret(),
			Mailbox:      cfg.GetGraphMailbox(),
			Timeout:      timeout,
		}))
	}
	if cfg.IsBrevoEnabled() {
		providers = append(providers, email.NewBrevoProvider(cfg.GetBrevoAPIKey(), from, "", timeout))
	}
	if cfg.IsSMTPEnabled() {
		providers = append(providers, email.NewSMTPProvider(email.SMTPConfig{
			Host:     cfg.GetSMTPHost(),
			Port:     cfg.GetSMTPPort(),
			Username: cfg.GetSMTPUsername(),
			Password: cfg.GetSMTPPassword(),
			Timeout:  timeout,
		}, from))
	}

	chain := ChainConfig{Providers: make([]email.Provider, 0, len(providers))}
	for _, p := range providers {
		chain.Providers = append(chain.Providers, email.WithBreaker(p, log))
	}

	names := make([]string, len(chain.Providers))
	for i, p := range chain.Providers {
		names[i] = p.Name()
	}
	log.Info("email provider chain configured", "providers", names)
	return chain
}
