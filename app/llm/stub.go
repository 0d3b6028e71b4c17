package llm

import "context"

// StubClient is a deterministic backend for tests and offline development.
type StubClient struct{}

var _ Client = (*StubClient)(nil)

func NewStubClient() *StubClient {
	return &StubClient{}
}

func (s *StubClient) GenerateSummaryAndLabels(_ context.Context, _ string) (string, []string, error) {
	return "ダミー要約", []string{"半導体", "技術", "動向"}, nil
}

func (s *StubClient) GenerateCategories(_ context.Context, _ string) ([]string, error) {
	return []string{"技術動向"}, nil
}

func (s *StubClient) GenerateMonthlyDigest(_ context.Context, _ []string) (string, error) {
	return "ダミー月次まとめ", nil
}
