// Package docnav provides the runtime behind a generated documentation
// site's navigation panel and search box. It loads a navigation tree and a
// sharded search index produced by a documentation generator, keeps the
// navigation panel in sync with the content panel, and answers incremental
// prefix/substring search queries.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, minio/, doxygen/).
package docnav
