package parser

import (
	"archive/zip"
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"document-chat/internal/models"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

const (
	defaultPageNumber = 1
	pageSeparator     = "\f"
)

var (
	slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
	xmlTagRe    = regexp.MustCompile(`<[^>]+>`)
)

// LoadPages reads the document at filePath into page units. Errors wrap
// models.ErrDocumentLoad.
func LoadPages(filePath string) ([]models.Page, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrDocumentLoad, filePath, err)
	}

	var (
		pages []models.Page
		err   error
	)
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		pages, err = parsePDF(filePath)
	case ".docx":
		pages, err = parseDOCX(filePath)
	case ".pptx":
		pages, err = parsePPTX(filePath)
	case ".xlsx", ".xlsm":
		pages, err = parseSpreadsheet(filePath)
	case ".txt", ".md":
		pages, err = parseText(filePath)
	default:
		err = fmt.Errorf("unsupported file format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", models.ErrDocumentLoad, filePath, err)
	}

	log.Debug().Str("file", filePath).Int("pages", len(pages)).Msg("Loaded document")
	return pages, nil
}

func parsePDF(filePath string) (pages []models.Page, err error) {
	// the pdf package panics on some malformed object graphs
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, errors.New("pdf has no pages")
	}

	// fonts are shared across pages
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}
		pageText, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("page %d: %v", i, err)
		}
		pages = append(pages, models.Page{
			Content: pageText,
			Source:  filePath,
			Number:  i,
		})
	}
	return pages, nil
}

func parseDOCX(filePath string) ([]models.Page, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	return []models.Page{{
		Content: xmlToText(content),
		Source:  filePath,
		Number:  defaultPageNumber, // DOCX has no page numbers
	}}, nil
}

func parsePPTX(filePath string) ([]models.Page, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []models.Page
	for _, file := range f.File {
		m := slideNameRe.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		slideNum, _ := strconv.Atoi(m[1])
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		pages = append(pages, models.Page{
			Content: extractTextFromXML(string(data)),
			Source:  filePath,
			Number:  slideNum,
		})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages, nil
}

// parseSpreadsheet returns one page per sheet, cells tab separated.
func parseSpreadsheet(filePath string) ([]models.Page, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []models.Page
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %v", sheetName, err)
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheetName))
		for _, row := range rows {
			text.WriteString(strings.Join(row, "\t"))
			text.WriteString("\n")
		}
		pages = append(pages, models.Page{
			Content: text.String(),
			Source:  filePath,
			Number:  sheetNum + 1, // 1-based indexing
		})
	}
	return pages, nil
}

// parseText treats form feeds as page breaks.
func parseText(filePath string) ([]models.Page, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var pages []models.Page
	for i, content := range strings.Split(string(data), pageSeparator) {
		pages = append(pages, models.Page{
			Content: content,
			Source:  filePath,
			Number:  i + 1,
		})
	}
	return pages, nil
}

func extractTextFromXML(xmlContent string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, "<a:t>")
	for i, part := range parts {
		if i == 0 {
			continue
		}
		endIdx := strings.Index(part, "</a:t>")
		if endIdx >= 0 {
			text.WriteString(html.UnescapeString(part[:endIdx]) + " ")
		}
	}
	return strings.TrimSpace(text.String())
}

// xmlToText flattens WordprocessingML into plain text, one line per paragraph.
func xmlToText(xmlContent string) string {
	withBreaks := strings.ReplaceAll(xmlContent, "</w:p>", "\n")
	plain := html.UnescapeString(xmlTagRe.ReplaceAllString(withBreaks, ""))
	return strings.TrimSpace(plain)
}
