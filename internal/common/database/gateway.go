// internal/common/database/gateway.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrNotFound is returned when no row matches.
var ErrNotFound = stderrors.New("record not found")

// Record is a row keyed by column name.
type Record map[string]interface{}

// Change is one row-level event from the change feed.
type Change struct {
	Table     string `json:"table"`
	Operation string `json:"operation"`
	ID        string `json:"id"`
	Record    Record `json:"record,omitempty"`
}

// Gateway is the storage capability workers depend on.
type Gateway interface {
	FetchByID(ctx context.Context, table, id string) (Record, error)
	FetchOneBy(ctx context.Context, table, column string, value interface{}) (Record, error)
	Insert(ctx context.Context, table string, rec Record) (string, error)
	Update(ctx context.Context, table, id string, changes Record) error
	Delete(ctx context.Context, table, id string) error
	Subscribe(ctx context.Context, table string) (<-chan Change, error)
}

// Tables and the columns callers may write. Anything else is rejected before
// reaching SQL.
var tableColumns = map[string][]string{
	"notifications":            {"id", "user_id", "type", "title", "message", "link", "metadata", "read", "created_at"},
	"email_templates":          {"id", "user_id", "nom", "sujet", "corps", "placeholders", "created_at", "updated_at"},
	"emails":                   {"id", "user_id", "dossier_id", "destinataire", "sujet", "corps", "statut", "message_id", "date_envoi"},
	"opco_estimations":         {"id", "siret", "siren", "nom_entreprise", "code_naf", "secteur", "opco", "nombre_salaries", "masse_salariale", "taux", "montant", "formule", "created_at"},
	"notification_preferences": {"id", "user_id", "email_enabled", "sms_enabled", "updated_at"},
	"dossiers":                 {"id", "user_id", "titre", "description", "statut", "created_at", "updated_at"},
	"documents":                {"id", "user_id", "dossier_id", "nom", "url", "created_at"},
}

// PostgresGateway implements Gateway on database/sql with lib/pq.
type PostgresGateway struct {
	db  *sql.DB
	dsn string

	// newListener is swapped in tests.
	newListener func(dsn string) listener
}

type listener interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Close() error
}

type pqListener struct{ *pq.Listener }

func (l pqListener) NotificationChannel() <-chan *pq.Notification { return l.Notify }

// NewPostgresGateway builds a gateway. dsn is only needed for Subscribe.
func NewPostgresGateway(db *sql.DB, dsn string) *PostgresGateway {
	return &PostgresGateway{
		db:  db,
		dsn: dsn,
		newListener: func(dsn string) listener {
			return pqListener{pq.NewListener(dsn, 10*time.Second, time.Minute, nil)}
		},
	}
}

func checkTable(table string) error {
	if _, ok := tableColumns[table]; !ok {
		return fmt.Errorf("table %q is not accessible through the gateway", table)
	}
	return nil
}

func checkColumn(table, column string) error {
	for _, c := range tableColumns[table] {
		if c == column {
			return nil
		}
	}
	return fmt.Errorf("column %q is not writable on %s", column, table)
}

// FetchByID returns the row as a Record via row_to_json.
func (g *PostgresGateway) FetchByID(ctx context.Context, table, id string) (Record, error) {
	return g.FetchOneBy(ctx, table, "id", id)
}

// FetchOneBy returns the first row where column = value.
func (g *PostgresGateway) FetchOneBy(ctx context.Context, table, column string, value interface{}) (Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if err := checkColumn(table, column); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT row_to_json(t) FROM %s t WHERE %s = $1 LIMIT 1", table, column)

	var raw []byte
	if err := g.db.QueryRowContext(ctx, query, value).Scan(&raw); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch from %s: %w", table, err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode %s row: %w", table, err)
	}
	return rec, nil
}

// Insert writes rec and returns its id, generating a UUID when rec has none.
func (g *PostgresGateway) Insert(ctx context.Context, table string, rec Record) (string, error) {
	if err := checkTable(table); err != nil {
		return "", err
	}

	row := Record{}
	for k, v := range rec {
		row[k] = v
	}
	id, _ := row["id"].(string)
	if id == "" {
		id = uuid.New().String()
		row["id"] = id
	}

	columns, args, err := g.columnsAndArgs(table, row)
	if err != nil {
		return "", err
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	if _, err := g.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert into %s: %w", table, err)
	}
	return id, nil
}

// Update sets the given columns on the row with this id.
func (g *PostgresGateway) Update(ctx context.Context, table, id string, changes Record) error {
	if err := checkTable(table); err != nil {
		return err
	}

	row := Record{}
	for k, v := range changes {
		if k != "id" {
			row[k] = v
		}
	}
	if len(row) == 0 {
		return fmt.Errorf("update %s: no columns to set", table)
	}

	columns, args, err := g.columnsAndArgs(table, row)
	if err != nil {
		return err
	}

	sets := make([]string, len(columns))
	for i, c := range columns {
		sets[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(sets, ", "), len(args))

	res, err := g.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the row with this id.
func (g *PostgresGateway) Delete(ctx context.Context, table, id string) error {
	if err := checkTable(table); err != nil {
		return err
	}

	res, err := g.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Subscribe listens on the "<table>_changes" channel fed by the notify
// triggers in configs/schema.sql. The channel closes when ctx is done.
func (g *PostgresGateway) Subscribe(ctx context.Context, table string) (<-chan Change, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if g.dsn == "" {
		return nil, fmt.Errorf("subscribe to %s: gateway has no DSN", table)
	}

	l := g.newListener(g.dsn)
	if err := l.Listen(table + "_changes"); err != nil {
		l.Close()
		return nil, fmt.Errorf("listen on %s_changes: %w", table, err)
	}

	out := make(chan Change, 16)
	go func() {
		defer close(out)
		defer l.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-l.NotificationChannel():
				if !ok {
					return
				}
				// nil notification means the connection was re-established
				if n == nil {
					continue
				}
				var change Change
				if err := json.Unmarshal([]byte(n.Extra), &change); err != nil {
					continue
				}
				if change.Table == "" {
					change.Table = table
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// columnsAndArgs returns sorted column names and driver-ready values.
func (g *PostgresGateway) columnsAndArgs(table string, row Record) ([]string, []interface{}, error) {
	columns := make([]string, 0, len(row))
	for k := range row {
		if err := checkColumn(table, k); err != nil {
			return nil, nil, err
		}
		columns = append(columns, k)
	}
	sort.Strings(columns)

	args := make([]interface{}, len(columns))
	for i, c := range columns {
		v, err := toDriverValue(row[c])
		if err != nil {
			return nil, nil, fmt.Errorf("column %s: %w", c, err)
		}
		args[i] = v
	}
	return columns, args, nil
}

func toDriverValue(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case []string:
		return pq.Array(val), nil
	case map[string]interface{}, Record:
		b, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return v, nil
	}
}
