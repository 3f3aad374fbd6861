package store

const (
	tableSomething = "something"

	queryCountSomething = `SELECT COUNT(*) FROM something`
)
