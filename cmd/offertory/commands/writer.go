package commands

import (
	"context"

	"offertory/internal/amqp"
	"offertory/internal/backend"
	"offertory/internal/log"
	"offertory/internal/services"
	"offertory/internal/sheets"
)

// tallyWriter builds the configured tally backends and, when a broker is
// configured, announces each saved tally on it. The returned func releases
// the broker connection.
func (a *app) tallyWriter(ctx context.Context) (sheets.TallyWriter, func(), error) {
	w, err := backend.NewFactory(a.logger).CreateTallyWriter(ctx, backend.ConfigFromAppConfig(a.cfg, a.repo))
	if err != nil {
		return nil, nil, err
	}
	if a.cfg.AMQPURL == "" {
		return services.NewTallyService(w, nil), func() {}, nil
	}

	client := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.logger)
	if err := client.Connect(ctx, 3); err != nil {
		a.logger.Warn("AMQP broker unavailable at startup", log.FieldError, err)
	}
	release := func() {
		if err := client.Close(); err != nil {
			a.logger.Warn("AMQP close failed", log.FieldError, err)
		}
	}
	return services.NewTallyService(w, client), release, nil
}
