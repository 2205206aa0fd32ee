package mysql

// Kept in step with migrations/001_poster_exports.sql.
const createExportsSQL = `
CREATE TABLE IF NOT EXISTS poster_exports (
  id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  session_id  VARCHAR(64)     NOT NULL,
  layout_id   INT             NOT NULL,
  file_name   VARCHAR(255)    NOT NULL,
  scale       DOUBLE          NOT NULL,
  bytes       INT             NOT NULL,
  rasterizer  VARCHAR(32)     NOT NULL,
  cache_hit   TINYINT(1)      NOT NULL DEFAULT 0,
  created_at  DATETIME(3)     NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
  PRIMARY KEY (id),
  KEY idx_poster_exports_created (created_at, id),
  KEY idx_poster_exports_session (session_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4
`

const insertExportSQL = `
INSERT INTO poster_exports
  (session_id, layout_id, file_name, scale, bytes, rasterizer, cache_hit, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP(3)))
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Newest first; served by idx_poster_exports_created.
const listExportsSQL = `
SELECT id, session_id, layout_id, file_name, scale, bytes, rasterizer, cache_hit, created_at
FROM poster_exports
ORDER BY created_at DESC, id DESC
LIMIT ?
`
