package vector

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/kailas-cloud/docqa/internal/domain/passage"
)

// Hash field names of an indexed chunk.
const (
	fieldChunkID    = "chunk_id"
	fieldDocName    = "doc_name"
	fieldDocTitle   = "doc_title"
	fieldDocURL     = "doc_url"
	fieldPageNum    = "page_num"
	fieldChunkIndex = "chunk_index"
	fieldContent    = "content"
	fieldIsTitle    = "is_title"
	fieldVector     = "vector"
)

var returnFields = []string{
	fieldChunkID, fieldDocName, fieldDocTitle, fieldDocURL,
	fieldPageNum, fieldChunkIndex, fieldContent, fieldIsTitle,
}

func toHash(p *passage.Passage, vec []float32) map[string]string {
	isTitle := "0"
	if p.IsTitle {
		isTitle = "1"
	}
	return map[string]string{
		fieldChunkID:    strconv.FormatInt(p.ID, 10),
		fieldDocName:    p.DocName,
		fieldDocTitle:   p.DocTitle,
		fieldDocURL:     p.DocURL,
		fieldPageNum:    strconv.Itoa(p.PageNum),
		fieldChunkIndex: strconv.Itoa(p.ChunkIndex),
		fieldContent:    p.Content,
		fieldIsTitle:    isTitle,
		fieldVector:     vectorToBytes(vec),
	}
}

func fromHash(fields map[string]string) (passage.Passage, error) {
	id, err := strconv.ParseInt(fields[fieldChunkID], 10, 64)
	if err != nil {
		return passage.Passage{}, fmt.Errorf("parse %s: %w", fieldChunkID, err)
	}
	chunkIndex, err := strconv.Atoi(fields[fieldChunkIndex])
	if err != nil {
		return passage.Passage{}, fmt.Errorf("parse %s: %w", fieldChunkIndex, err)
	}
	// page_num is optional metadata; unparsable means unknown.
	pageNum, _ := strconv.Atoi(fields[fieldPageNum])

	return passage.Passage{
		ID:         id,
		DocName:    fields[fieldDocName],
		DocTitle:   fields[fieldDocTitle],
		DocURL:     fields[fieldDocURL],
		PageNum:    pageNum,
		ChunkIndex: chunkIndex,
		Content:    fields[fieldContent],
		IsTitle:    fields[fieldIsTitle] == "1",
	}, nil
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
