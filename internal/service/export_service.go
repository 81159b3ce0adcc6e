package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	rendererhtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"github.com/schemarag/schemarag/internal/filestore"
	appErr "github.com/schemarag/schemarag/internal/pkg/errors"
)

// SchemaReport lists the files written by one export run.
type SchemaReport struct {
	Markdown  ReportFile `json:"markdown"`
	HTML      ReportFile `json:"html"`
	Store     string     `json:"store"`
	Databases int        `json:"databases"`
}

type ReportFile struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// ExportService renders the stored schema documentation as a markdown report
// plus its HTML rendering and saves both through the configured file store.
type ExportService struct {
	rag   *RAGService
	store filestore.Store
	md    goldmark.Markdown
}

func NewExportService(rag *RAGService, store filestore.Store) *ExportService {
	return &ExportService{
		rag:   rag,
		store: store,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(rendererhtml.WithUnsafe()),
		),
	}
}

func (s *ExportService) Export(ctx context.Context, baseURL string) (*SchemaReport, error) {
	markdown, databases, err := s.buildReport(ctx)
	if err != nil {
		return nil, err
	}
	html, err := s.renderHTML(markdown)
	if err != nil {
		return nil, fmt.Errorf("render html report: %w", err)
	}

	hash := sha256.Sum256([]byte(markdown))
	base := fmt.Sprintf("schema-report-%s-%s",
		time.Now().Format("20060102-150405"), hex.EncodeToString(hash[:4]))

	mdFile, err := s.saveReport(ctx, base+".md", markdown, baseURL)
	if err != nil {
		return nil, err
	}
	htmlFile, err := s.saveReport(ctx, base+".html", html, baseURL)
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("schema report exported",
		zap.String("key", base),
		zap.String("store", s.store.Type()),
		zap.Int("databases", databases))
	return &SchemaReport{
		Markdown:  mdFile,
		HTML:      htmlFile,
		Store:     s.store.Type(),
		Databases: databases,
	}, nil
}

func (s *ExportService) saveReport(ctx context.Context, key, content, baseURL string) (ReportFile, error) {
	body := nopSeekCloser{bytes.NewReader([]byte(content))}
	if err := s.store.Save(ctx, key, body, int64(len(content))); err != nil {
		return ReportFile{}, fmt.Errorf("save report %s: %w", key, err)
	}
	return ReportFile{
		Key:  key,
		URL:  s.store.URL(key, baseURL),
		Size: int64(len(content)),
	}, nil
}

func (s *ExportService) buildReport(ctx context.Context) (string, int, error) {
	overview := s.rag.Overview(ctx)
	if overview.TotalDocuments == 0 {
		return "", 0, fmt.Errorf("no schema documents to export: %w", appErr.ErrInvalid)
	}
	names := make([]string, 0, len(overview.Databases))
	for name := range overview.Databases {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("# Database Schema Report\n\n")
	fmt.Fprintf(&b, "Generated at %s.\n\n", time.Now().Format(time.RFC3339))
	b.WriteString("## Overview\n\n")
	fmt.Fprintf(&b, "- Databases: %d\n", len(overview.Databases))
	fmt.Fprintf(&b, "- Schema documents: %d\n", overview.TotalDocuments)
	types := make([]string, 0, len(overview.DocumentTypes))
	for docType := range overview.DocumentTypes {
		types = append(types, docType)
	}
	sort.Strings(types)
	for _, docType := range types {
		fmt.Fprintf(&b, "- %s documents: %d\n", docType, overview.DocumentTypes[docType])
	}
	b.WriteString("\n")
	for _, name := range names {
		database := overview.Databases[name]
		fmt.Fprintf(&b, "## %s (%s)\n\n", name, database.Type)
		fmt.Fprintf(&b, "- Schema documents: %d\n", database.DocumentCount)
		if len(database.Tables) > 0 {
			fmt.Fprintf(&b, "- Tables: %s\n", strings.Join(database.Tables, ", "))
		}
		if len(database.Collections) > 0 {
			fmt.Fprintf(&b, "- Collections: %s\n", strings.Join(database.Collections, ", "))
		}
		b.WriteString("\n```\n")
		b.WriteString(strings.TrimRight(s.rag.Context(ctx, name), "\n"))
		b.WriteString("\n```\n\n")
	}
	return b.String(), len(names), nil
}

func (s *ExportService) renderHTML(markdown string) (string, error) {
	var out bytes.Buffer
	if err := s.md.Convert([]byte(markdown), &out); err != nil {
		return "", err
	}
	return out.String(), nil
}

type nopSeekCloser struct {
	*bytes.Reader
}

func (nopSeekCloser) Close() error { return nil }
