package main

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/docqa/ingest"
)

func TestIngestCommandRequiresArgs(t *testing.T) {
	app := &cli.App{
		Name: "docqa",
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Action: ingestCommand,
			},
		},
	}

	err := app.Run([]string{"docqa", "ingest"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one")
}

func TestQueryCommandRequiresQuestion(t *testing.T) {
	app := &cli.App{
		Name: "docqa",
		Commands: []*cli.Command{
			{
				Name:   "query",
				Action: queryCommand,
			},
		},
	}

	err := app.Run([]string{"docqa", "query"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question")
}

func TestReindexCommandFlags(t *testing.T) {
	flags := []cli.Flag{
		&cli.IntFlag{
			Name:  "batch-size",
			Value: 100,
		},
		&cli.IntFlag{
			Name:  "report-interval",
			Value: 100,
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Value: 1 * time.Second,
		},
	}

	t.Run("batch-size has default value of 100", func(t *testing.T) {
		f, ok := flags[0].(*cli.IntFlag)
		require.True(t, ok)
		assert.Equal(t, 100, f.Value)
	})

	t.Run("max-retries has default value of 3", func(t *testing.T) {
		f, ok := flags[2].(*cli.IntFlag)
		require.True(t, ok)
		assert.Equal(t, 3, f.Value)
	})

	t.Run("retry-delay has default value of 1s", func(t *testing.T) {
		f, ok := flags[3].(*cli.DurationFlag)
		require.True(t, ok)
		assert.Equal(t, 1*time.Second, f.Value)
	})
}

func TestSetupApp(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			t.Run(level, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: "info",
						},
					},
					Before: setupApp,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, level := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(level, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: "info",
						},
					},
					Before: setupApp,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupApp,
			Action: func(c *cli.Context) error {
				return nil
			},
		}

		err := app.Run([]string{"test", "--log-level", "loud"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "   a\n   b", indent("a\nb\n", "   "))
	assert.Equal(t, "  single", indent("single", "  "))
}

func TestIngestTotalsAdd(t *testing.T) {
	total := &ingestTotals{}
	total.add(&ingest.Report{Documents: 1, Chunks: 4, Stored: 3, Failed: 1})
	total.add(&ingest.Report{Documents: 2, Chunks: 6, Stored: 6})

	assert.Equal(t, 3, total.documents)
	assert.Equal(t, 10, total.chunks)
	assert.Equal(t, 9, total.stored)
	assert.Equal(t, 1, total.failed)
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}
