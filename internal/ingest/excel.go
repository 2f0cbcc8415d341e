package ingest

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"seedpipe/internal/services"
)

// The analyst exports carry a decorative title row; the real headers sit
// on the second row and data starts on the third.
const headerRow = 1

// Sentinel the analysts type into the e-mail column when extraction found
// nothing. Mapped to an empty e-mail on ingest.
const noEmailSentinel = "2.이메일 없음"

// Spreadsheet headers as they appear in the scraping exports.
const (
	headerID                = "번호"
	headerAuthorName        = "작성자 이름"
	headerAccountID         = "아이디(@계정)"
	headerProfileIntro      = "프로필 소개글"
	headerVideoCaption      = "영상 설명(캡션)"
	headerEngagementRate    = "참여율"
	headerViewRatio         = "조회수 비율"
	headerCommentConversion = "댓글 전환율"
	headerFollowerQuality   = "팔로워 품질"
	headerEstimatedCPM      = "예상 CPM($)"
	headerCostEfficiency    = "비용 효율"
	headerFollowerCount     = "팔로워 수"
	headerUploadCount       = "업로드 영상 수"
	headerLikesCount        = "좋아요 수"
	headerSharesCount       = "공유 수"
	headerCommentsCount     = "댓글 수"
	headerViewsCount        = "조회수"
	headerVideoDuration     = "영상 길이(초)"
	headerMusicTitle        = "음악 제목"
	headerMusicArtist       = "음악 아티스트"
	headerUploadTime        = "업로드 시간"
	headerVideoURL          = "영상 URL"
	headerAuthorID          = "작성자 고유 ID"
	headerThumbnailURL      = "영상 썸네일 URL"
	headerFollowerTier      = "팔로워 Tier"
	headerEmail             = "이메일 추출"
	headerPriority          = "우선순위"
	headerProfileEntry      = "프로필 진입"
)

// ReadWorkbook parses one scraping export into influencer records of the
// given type, plus a batch summary. Columns are located by header text so
// column order and optional columns (e-mail, priority, profile entry) vary
// freely between exports.
func ReadWorkbook(path, influencerType string) ([]Influencer, Summary, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, Summary{}, services.Wrap(services.ErrValidation, "ingest", "open_workbook", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, Summary{}, services.Wrap(services.ErrValidation, "ingest", "read_rows", path, err)
	}
	if len(rows) <= headerRow {
		return nil, Summary{}, services.Wrap(services.ErrValidation, "ingest", "read_rows",
			fmt.Sprintf("%s: sheet %q has no header row", path, sheet), nil)
	}

	columns := indexHeaders(rows[headerRow])
	for _, required := range []string{headerAuthorName, headerAccountID} {
		if _, ok := columns[required]; !ok {
			return nil, Summary{}, services.Wrap(services.ErrValidation, "ingest", "map_headers",
				fmt.Sprintf("%s: missing column %q", path, required), nil)
		}
	}

	influencers := make([]Influencer, 0, len(rows)-headerRow-1)
	for _, row := range rows[headerRow+1:] {
		if isBlankRow(row) {
			continue
		}
		influencers = append(influencers, mapRow(row, columns, influencerType))
	}

	return influencers, Summarize(influencers), nil
}

func mapRow(row []string, columns map[string]int, influencerType string) Influencer {
	cell := func(header string) string {
		idx, ok := columns[header]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	inf := Influencer{
		ID:           ParseCount(cell(headerID)),
		AuthorName:   cell(headerAuthorName),
		AccountID:    cell(headerAccountID),
		AuthorID:     cell(headerAuthorID),
		ProfileIntro: cell(headerProfileIntro),

		VideoCaption:  cell(headerVideoCaption),
		VideoURL:      cell(headerVideoURL),
		VideoDuration: ParseCount(cell(headerVideoDuration)),
		UploadTime:    cell(headerUploadTime),
		ThumbnailURL:  cell(headerThumbnailURL),

		MusicTitle:  cell(headerMusicTitle),
		MusicArtist: cell(headerMusicArtist),

		FollowerCount: ParseCount(cell(headerFollowerCount)),
		UploadCount:   ParseCount(cell(headerUploadCount)),
		LikesCount:    ParseCount(cell(headerLikesCount)),
		SharesCount:   ParseCount(cell(headerSharesCount)),
		CommentsCount: ParseCount(cell(headerCommentsCount)),
		ViewsCount:    ParseCount(cell(headerViewsCount)),

		EngagementRate:    ParseRate(cell(headerEngagementRate)),
		ViewRatio:         ParseRate(cell(headerViewRatio)),
		CommentConversion: ParseRate(cell(headerCommentConversion)),
		FollowerQuality:   ParseRate(cell(headerFollowerQuality)),
		EstimatedCPM:      ParseRate(cell(headerEstimatedCPM)),
		CostEfficiency:    ParseRate(cell(headerCostEfficiency)),

		InfluencerType: influencerType,
		Priority:       cell(headerPriority),
		ProfileEntry:   cell(headerProfileEntry),
		Status:         "none",
	}

	inf.FollowerCountFormatted = FormatCount(inf.FollowerCount)
	inf.LikesCountFormatted = FormatCount(inf.LikesCount)
	inf.SharesCountFormatted = FormatCount(inf.SharesCount)
	inf.CommentsCountFormatted = FormatCount(inf.CommentsCount)
	inf.ViewsCountFormatted = FormatCount(inf.ViewsCount)

	if tier := cell(headerFollowerTier); tier != "" {
		inf.FollowerTier = tier
	} else {
		inf.FollowerTier = FollowerTier(inf.FollowerCount)
	}

	if email := cell(headerEmail); email != "" && email != noEmailSentinel {
		inf.Email = strings.ToLower(email)
	}

	return inf
}

func indexHeaders(headers []string) map[string]int {
	columns := make(map[string]int, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			continue
		}
		if _, exists := columns[header]; !exists {
			columns[header] = i
		}
	}
	return columns
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
