package main

import (
	"context"
	"errors"
	"fmt"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"hcg/exercise"
	"hcg/grader"
	"hcg/state"
)

func runVerify(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("verify")

	name := cmd.Args().Get(0)
	if len(name) == 0 {
		return errors.New("no exercise has been specified")
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many arguments", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}
	return verify(name, log)
}

// verify reports every problem of exercise definition.
func verify(name string, log *zap.Logger) error {
	ex, err := exercise.Load(name)
	if err != nil {
		return err
	}

	if err := ex.Validate(); err != nil {
		problems := multierr.Errors(err)
		for _, p := range problems {
			log.Error("Exercise problem", zap.Error(p))
		}
		return fmt.Errorf("exercise '%s' has %d problem(s)", name, len(problems))
	}

	for _, c := range ex.Checks {
		// rules were validated above
		rule, _ := grader.ParseRule(c.Type, c.Rule)
		log.Debug("Check", zap.String("id", c.ID), zap.String("type", c.Type), zap.String("command", rule.Command()), zap.String("rule", c.Rule))
	}
	log.Info("Exercise is valid", zap.String("title", ex.Title), zap.Int("checks", len(ex.Checks)))
	return nil
}
