package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/election-results/constants"
	"github.com/joseph-ayodele/election-results/internal/common"
	"github.com/joseph-ayodele/election-results/internal/entity"
)

type ImportLogRepository interface {
	Append(ctx context.Context, l entity.ImportLog) (int64, error)
	// LatestFileType returns the file type of the newest row for filename, or "".
	LatestFileType(ctx context.Context, filename string) (string, error)
	// DeleteMatching removes rows whose filename contains fragment.
	DeleteMatching(ctx context.Context, fragment string) (int64, error)
	// FindByHash returns the newest successful import of identical content.
	FindByHash(ctx context.Context, hash string) (*entity.ImportLog, error)
	List(ctx context.Context, limit int) ([]entity.ImportLog, error)
}

type importLogRepository struct{ base }

func (r *importLogRepository) Append(ctx context.Context, l entity.ImportLog) (int64, error) {
	at := l.ImportedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	ins := r.sb().Insert("import_log").
		Columns("filename", "file_type", "records_imported", "status", "notes", "batch_id", "content_hash", "imported_at").
		Values(l.Filename, l.FileType, l.RecordsImported, string(l.Status),
			nullString(l.Notes), nullString(l.BatchID), nullString(l.ContentHash), at)
	id, err := r.insertID(ctx, ins)
	if err != nil {
		r.logger.Error("failed to append import log", "filename", l.Filename, "error", err)
		return 0, common.DatabaseError("append import log", err)
	}
	return id, nil
}

func (r *importLogRepository) LatestFileType(ctx context.Context, filename string) (string, error) {
	sel := r.sb().Select("file_type").From(r.sb().Table("import_log")).
		Where(entsql.EQ("filename", filename)).
		OrderBy(entsql.Desc("imported_at"), entsql.Desc("id")).
		Limit(1)
	query, args := sel.Query()
	var ft string
	err := r.q.QueryRowContext(ctx, query, args...).Scan(&ft)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", common.DatabaseError("latest import file type", err)
	}
	return ft, nil
}

func (r *importLogRepository) DeleteMatching(ctx context.Context, fragment string) (int64, error) {
	n, err := r.exec(ctx, r.sb().Delete("import_log").Where(entsql.Contains("filename", fragment)))
	if err != nil {
		return 0, common.DatabaseError("delete import log", err)
	}
	return n, nil
}

func (r *importLogRepository) FindByHash(ctx context.Context, hash string) (*entity.ImportLog, error) {
	rows, err := r.rawQuery(ctx, importLogSelect+` WHERE content_hash = ? AND status = ? ORDER BY imported_at DESC, id DESC LIMIT 1`,
		hash, string(constants.ImportStatusSuccess))
	if err != nil {
		return nil, common.DatabaseError("find import by hash", err)
	}
	defer rows.Close()
	list, err := scanImportLogs(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, common.NotFoundErrorf("import with hash %s", hash)
	}
	return &list[0], nil
}

func (r *importLogRepository) List(ctx context.Context, limit int) ([]entity.ImportLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.rawQuery(ctx, importLogSelect+` ORDER BY imported_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, common.DatabaseError("list import log", err)
	}
	defer rows.Close()
	return scanImportLogs(rows)
}

const importLogSelect = `SELECT id, filename, file_type, records_imported, status, notes, batch_id, content_hash, imported_at FROM import_log`

func scanImportLogs(rows *sql.Rows) ([]entity.ImportLog, error) {
	var out []entity.ImportLog
	for rows.Next() {
		var (
			l                   entity.ImportLog
			status              string
			notes, batch, chash sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.Filename, &l.FileType, &l.RecordsImported, &status, &notes, &batch, &chash, &l.ImportedAt); err != nil {
			return nil, common.DatabaseError("scan import log", err)
		}
		l.Status = constants.ImportStatus(status)
		l.Notes = notes.String
		l.BatchID = batch.String
		l.ContentHash = chash.String
		out = append(out, l)
	}
	return out, rows.Err()
}
