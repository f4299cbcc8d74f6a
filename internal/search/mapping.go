package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for book documents: English
// stemming on the free-text fields, keyword matching for tag and status
// filters, and numeric fields for range queries and recency sorting.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// Title is the primary search target; term vectors for highlighting.
	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = en.AnalyzerName
	titleField.Store = true
	titleField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("title", titleField)

	subtitleField := bleve.NewTextFieldMapping()
	subtitleField.Analyzer = en.AnalyzerName
	subtitleField.Store = true
	docMapping.AddFieldMappingsAt("subtitle", subtitleField)

	authorsField := bleve.NewTextFieldMapping()
	authorsField.Analyzer = simple.Name
	authorsField.Store = true
	authorsField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("authors", authorsField)

	// Publisher names shouldn't be stemmed ("Tor" is not "tore").
	publisherField := bleve.NewTextFieldMapping()
	publisherField.Analyzer = simple.Name
	publisherField.Store = true
	docMapping.AddFieldMappingsAt("publisher", publisherField)

	notesField := bleve.NewTextFieldMapping()
	notesField.Analyzer = en.AnalyzerName
	notesField.Store = false
	docMapping.AddFieldMappingsAt("notes", notesField)

	idField := bleve.NewTextFieldMapping()
	idField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idField)

	isbnField := bleve.NewTextFieldMapping()
	isbnField.Analyzer = keyword.Name
	isbnField.Store = true
	docMapping.AddFieldMappingsAt("isbn", isbnField)

	// Keyword analyzer keeps compound tags intact (e.g. "to-reread").
	tagsField := bleve.NewTextFieldMapping()
	tagsField.Analyzer = keyword.Name
	tagsField.Store = true
	tagsField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("tags", tagsField)

	statusField := bleve.NewTextFieldMapping()
	statusField.Analyzer = keyword.Name
	statusField.Store = true
	docMapping.AddFieldMappingsAt("status", statusField)

	pageCountField := bleve.NewNumericFieldMapping()
	pageCountField.Store = true
	docMapping.AddFieldMappingsAt("page_count", pageCountField)

	yearField := bleve.NewNumericFieldMapping()
	yearField.Store = true
	docMapping.AddFieldMappingsAt("publish_year", yearField)

	createdField := bleve.NewNumericFieldMapping()
	createdField.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdField)

	updatedField := bleve.NewNumericFieldMapping()
	updatedField.Store = true
	docMapping.AddFieldMappingsAt("updated_at", updatedField)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
