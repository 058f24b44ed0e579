package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dalazx/parquet-dump/model"
)

// MetaCmd is a kong command that prints file metadata
type MetaCmd struct {
	URI       string `arg:"" predictor:"file" help:"Path of Parquet file."`
	RowGroups bool   `help:"Include per-row-group chunk and page metadata."`
}

// Run does the actual metadata dump job
func (m MetaCmd) Run() error {
	return m.dump(os.Stdout)
}

func (m MetaCmd) dump(out io.Writer) error {
	r, err := model.OpenFile(m.URI)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	footer := r.Footer()
	fmt.Fprintf(out, "File Metadata: %s\n", m.URI)
	fmt.Fprintf(out, "  Version: %d\n", footer.Version)
	fmt.Fprintf(out, "  Num Rows: %d\n", footer.NumRows)
	fmt.Fprintln(out, "  k/v metadata:")
	if len(footer.KeyValueMetadata) > 0 {
		for _, kv := range footer.KeyValueMetadata {
			value := ""
			if kv.Value != nil {
				value = *kv.Value
			}
			fmt.Fprintf(out, "    %s=%s\n", kv.Key, value)
		}
	} else {
		fmt.Fprintln(out, "    (none)")
	}
	fmt.Fprintln(out, "  schema:")
	for _, se := range footer.Schema {
		typ := "None"
		if se.Type != nil {
			typ = se.Type.String()
		}
		repetition := "None"
		if se.RepetitionType != nil {
			repetition = se.RepetitionType.String()
		}
		converted := "None"
		if se.ConvertedType != nil {
			converted = se.ConvertedType.String()
		}
		fmt.Fprintf(out, "    %s (%s): length=%s, repetition=%s, children=%s, converted_type=%s\n",
			se.Name, typ, optInt32(se.TypeLength), repetition, optInt32(se.NumChildren), converted)
	}

	if !m.RowGroups {
		return nil
	}
	fmt.Fprintln(out, "  row groups:")
	for rgIndex, rg := range r.RowGroups() {
		fmt.Fprintf(out, "  rows=%d, bytes=%d\n", rg.NumRows, rg.TotalByteSize)
		fmt.Fprintln(out, "    chunks:")
		chunks, err := r.GetAllColumnChunksInfo(rgIndex)
		if err != nil {
			return err
		}
		for colIndex, chunk := range chunks {
			fmt.Fprintf(out, "      type=%s compression=%s encodings=%s path_in_schema=%s "+
				"num_values=%d uncompressed_bytes=%d compressed_bytes=%d "+
				"data_page_offset=%d dictionary_page_offset=%s\n",
				chunk.PhysicalType, chunk.Codec, strings.Join(chunk.Encodings, ","),
				chunk.Name, chunk.NumValues, chunk.UncompressedSize, chunk.CompressedSize,
				chunk.DataPageOffset, optInt64(chunk.DictPageOffset))
			pages, err := r.GetPageMetadataList(rgIndex, colIndex)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "      pages:")
			for _, page := range pages {
				fmt.Fprintf(out, "        page header: type=%s uncompressed_size=%d "+
					"num_values=%d encoding=%s def_level_encoding=%s rep_level_encoding=%s\n",
					page.PageType, page.UncompressedSize, page.NumValues,
					orNone(page.Encoding), orNone(page.DefLevelEncoding), orNone(page.RepLevelEncoding))
			}
		}
	}
	return nil
}

func optInt32(v *int32) string {
	if v == nil {
		return "None"
	}
	return fmt.Sprintf("%d", *v)
}

func optInt64(v *int64) string {
	if v == nil {
		return "None"
	}
	return fmt.Sprintf("%d", *v)
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
