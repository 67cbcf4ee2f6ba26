package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"shift-clock/backend/internal/dto"
	"shift-clock/backend/internal/timecalc"
	"shift-clock/backend/pkg/clock"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// 导出文件 Content-Type
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)

var secondsPerHour = decimal.NewFromInt(3600)

// ExportFile 导出结果，由 Handler 层设置响应头后写入 Response
type ExportFile struct {
	Buffer      *bytes.Buffer
	Filename    string
	ContentType string
}

// ExportService 报表导出业务接口
//
// 设计说明：
//   - 周报与区间报表共用同一份 timecalc.Report，只是窗口不同
//   - xlsx 分“汇总”“明细”两个 Sheet，另附十进制小时列便于薪资核算
//   - csv 为单文件分段格式：标题、汇总、明细
type ExportService interface {
	ExportReport(ctx context.Context, req *dto.ExportReportRequest) (*ExportFile, error)
}

type exportService struct {
	reports ReportService
	clock   clock.Clock
	logger  *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(reports ReportService, clk clock.Clock, logger *zap.Logger) ExportService {
	if clk == nil {
		clk = clock.System{}
	}
	return &exportService{reports: reports, clock: clk, logger: logger}
}

// reportMeta 导出文件的标题信息
type reportMeta struct {
	title    string
	fromDate string
	toDate   string
	baseName string
}

// ═══════════════════════════════════════════════════════════
// ExportReport 导出周报 / 区间报表
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportReport(ctx context.Context, req *dto.ExportReportRequest) (*ExportFile, error) {
	now := s.clock.Now()

	var (
		start, end time.Time
		err        error
		meta       reportMeta
	)
	if req.Kind == "range" {
		start, end, err = resolveDateRange(req.From, req.To, now)
		meta.title = "区间工时报表"
	} else {
		start, end, err = resolveWeek(req.WeekStart, now)
		meta.title = "周工时报表"
	}
	if err != nil {
		return nil, err
	}
	meta.fromDate = start.Format(dto.DateLayout)
	meta.toDate = end.AddDate(0, 0, -1).Format(dto.DateLayout)
	if req.Kind == "range" {
		meta.baseName = fmt.Sprintf("range-report-%s-to-%s", meta.fromDate, meta.toDate)
	} else {
		meta.baseName = fmt.Sprintf("weekly-report-%s", meta.fromDate)
	}

	report, err := s.reports.Compute(ctx, start, end)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if req.Format == dto.ExportFormatCSV {
		if err := writeReportCSV(buf, meta, report); err != nil {
			s.logger.Error("写入 CSV 失败", zap.Error(err))
			return nil, ErrExportGenerateFail
		}
		return &ExportFile{Buffer: buf, Filename: meta.baseName + ".csv", ContentType: ContentTypeCSV}, nil
	}

	if err := writeReportXLSX(buf, meta, report); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, ErrExportGenerateFail
	}
	return &ExportFile{Buffer: buf, Filename: meta.baseName + ".xlsx", ContentType: ContentTypeXLSX}, nil
}

// ── CSV ──

func writeReportCSV(w io.Writer, meta reportMeta, report *timecalc.Report) error {
	cw := csv.NewWriter(w)

	records := [][]string{
		{meta.title},
		{"起始日期", meta.fromDate, "结束日期", meta.toDate},
		{},
		{"员工汇总"},
		{"员工", "已完成 (H:MM)", "含进行中 (H:MM)", "已完成 (小时)"},
	}
	for _, t := range report.Totals {
		records = append(records, []string{
			t.EmployeeName,
			t.CompletedFormatted,
			t.LiveFormatted,
			decimalHours(timecalc.Seconds(t.Completed)).StringFixed(2),
		})
	}

	records = append(records,
		[]string{},
		[]string{"班次明细"},
		[]string{"员工", "日期", "上班 (UTC)", "下班 (UTC)", "工时 (H:MM)", "状态"},
	)
	for _, row := range report.Shifts {
		records = append(records, []string{
			row.EmployeeName,
			row.Day.Format(dto.DateLayout),
			formatTime(row.ClockIn),
			formatOptional(row.ClockOut),
			timecalc.FormatHM(time.Duration(row.WorkedSeconds) * time.Second),
			shiftStatus(row.Completed),
		})
	}

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("写入 CSV 记录失败: %w", err)
	}
	return nil
}

// ── Excel ──

func writeReportXLSX(w io.Writer, meta reportMeta, report *timecalc.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	hoursStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00

	// 汇总 Sheet
	summary := "汇总"
	idx, err := f.NewSheet(summary)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	f.SetColWidth(summary, "A", "A", 24)
	f.SetColWidth(summary, "B", "D", 18)

	f.SetCellValue(summary, "A1", fmt.Sprintf("%s %s ~ %s", meta.title, meta.fromDate, meta.toDate))
	f.MergeCell(summary, "A1", "D1")
	f.SetCellStyle(summary, "A1", "A1", headerStyle)

	summaryHeader := []string{"员工", "已完成 (H:MM)", "含进行中 (H:MM)", "已完成 (小时)"}
	for i, h := range summaryHeader {
		f.SetCellValue(summary, cell(colName(i), 2), h)
	}
	f.SetCellStyle(summary, "A2", cell(colName(len(summaryHeader)-1), 2), headerStyle)

	row := 3
	for _, t := range report.Totals {
		f.SetCellValue(summary, cell("A", row), t.EmployeeName)
		f.SetCellValue(summary, cell("B", row), t.CompletedFormatted)
		f.SetCellValue(summary, cell("C", row), t.LiveFormatted)
		f.SetCellValue(summary, cell("D", row), decimalHours(timecalc.Seconds(t.Completed)).InexactFloat64())
		f.SetCellStyle(summary, cell("D", row), cell("D", row), hoursStyle)
		row++
	}

	// 明细 Sheet
	detail := "明细"
	if _, err := f.NewSheet(detail); err != nil {
		return err
	}
	f.SetColWidth(detail, "A", "A", 24)
	f.SetColWidth(detail, "B", "B", 12)
	f.SetColWidth(detail, "C", "D", 22)
	f.SetColWidth(detail, "E", "G", 12)

	detailHeader := []string{"员工", "日期", "上班 (UTC)", "下班 (UTC)", "工时 (H:MM)", "工时 (小时)", "状态"}
	for i, h := range detailHeader {
		f.SetCellValue(detail, cell(colName(i), 1), h)
	}
	f.SetCellStyle(detail, "A1", cell(colName(len(detailHeader)-1), 1), headerStyle)

	row = 2
	for _, r := range report.Shifts {
		f.SetCellValue(detail, cell("A", row), r.EmployeeName)
		f.SetCellValue(detail, cell("B", row), r.Day.Format(dto.DateLayout))
		f.SetCellValue(detail, cell("C", row), formatTime(r.ClockIn))
		f.SetCellValue(detail, cell("D", row), formatOptional(r.ClockOut))
		f.SetCellValue(detail, cell("E", row), timecalc.FormatHM(time.Duration(r.WorkedSeconds)*time.Second))
		f.SetCellValue(detail, cell("F", row), decimalHours(r.WorkedSeconds).InexactFloat64())
		f.SetCellStyle(detail, cell("F", row), cell("F", row), hoursStyle)
		f.SetCellValue(detail, cell("G", row), shiftStatus(r.Completed))
		row++
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("写入 Excel 失败: %w", err)
	}
	return nil
}

// ── 辅助函数 ──

// decimalHours 秒数换算为小时，保留两位小数
func decimalHours(seconds int64) decimal.Decimal {
	return decimal.NewFromInt(seconds).Div(secondsPerHour).Round(2)
}

func shiftStatus(completed bool) string {
	if completed {
		return "已完成"
	}
	return "进行中"
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
