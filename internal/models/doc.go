// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

/*
Package models defines the data structures shared across the analysis
pipeline.

Each type mirrors one persisted table row (file_token,
relation_distance, file_info, tf_idf, item_matrix_triangle) or one
in-memory result shape (prompt results, routes). Field tags use the
column names so rows marshal into diagnostics without translation.

Documents carry two identities: the readable file stem recorded in the
catalog, and the analysis identity "title_<id>" used by token JSON
names, matrix ids, and prompt scoring. TitleKey and TitleKeyID convert
between them.
*/
package models
