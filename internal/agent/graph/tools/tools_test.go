package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRetriever struct{}

func (failingRetriever) RetrieveDocument(context.Context, string) (string, error) {
	return "", errors.New("index offline")
}

func TestParseRetrieveArguments(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    string
		wantErr bool
	}{
		{name: "json", args: `{"query": "  visi perusahaan "}`, want: "visi perusahaan"},
		{name: "number coerced", args: `{"query": 42}`, want: "42"},
		{name: "plain text", args: "cara retur", want: "cara retur"},
		{name: "missing query", args: `{"q": "x"}`, wantErr: true},
		{name: "empty", args: "  ", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRetrieveArguments(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Query)
		})
	}
}

func TestRetrieveDocumentTool(t *testing.T) {
	ctx := context.Background()
	tl := NewRetrieveDocumentTool(NewStaticFAQRetriever(nil))

	info, err := tl.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, ToolRetrieveDocument, info.Name)

	out, err := tl.InvokableRun(ctx, `{"query":"apa itu visi perusahaan"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Visi kami")

	_, err = tl.InvokableRun(ctx, `{}`)
	assert.Error(t, err)

	degraded, err := NewRetrieveDocumentTool(failingRetriever{}).InvokableRun(ctx, `{"query":"x"}`)
	require.NoError(t, err)
	assert.Equal(t, RetrievalFailedMessage, degraded)
}

func TestStaticFAQRetriever(t *testing.T) {
	ctx := context.Background()
	r := NewStaticFAQRetriever(nil)

	got, err := r.RetrieveDocument(ctx, "Bagaimana saya mengajukan pengembalian barang?")
	require.NoError(t, err)
	assert.Contains(t, got, "Retur dapat diajukan")

	got, err = r.RetrieveDocument(ctx, "layanan pelanggan tersedia kapan")
	require.NoError(t, err)
	assert.Contains(t, got, "08.00-21.00")

	got, err = r.RetrieveDocument(ctx, "zzzz")
	require.NoError(t, err)
	assert.Equal(t, NoDocumentMessage, got)
}
