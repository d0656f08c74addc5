package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tschnepf/workload-tracker-sub001/internal/model"
	"github.com/tschnepf/workload-tracker-sub001/internal/repository"
)

// ── 交付阶段 ──

const (
	PhaseSD         = "SD"
	PhaseDD         = "DD"
	PhaseIFP        = "IFP"
	PhaseIFC        = "IFC"
	PhaseCA         = "CA"
	PhaseBulletins  = "BULLETINS"
	PhaseMasterplan = "MASTERPLAN"
	PhaseOther      = "OTHER"
)

// tokenPhaseOrder 关键词匹配的阶段顺序
var tokenPhaseOrder = []string{PhaseSD, PhaseDD, PhaseIFP, PhaseIFC}

// PhaseBand 百分比区间（双端含；IFC 为 Min==Max 的精确匹配区间）
type PhaseBand struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// PhaseConfig 阶段映射配置：关键词列表 + 百分比区间
type PhaseConfig struct {
	Tokens map[string][]string  `json:"tokens"`
	Bands  map[string]PhaseBand `json:"bands"`
}

// DefaultPhaseConfig 硬编码默认配置。
// 配置源不可达或损坏时分类器回退到这里，分类永不被阻塞。
func DefaultPhaseConfig() *PhaseConfig {
	return &PhaseConfig{
		Tokens: map[string][]string{
			PhaseSD:  {"sd", "schematic", "schematic design"},
			PhaseDD:  {"dd", "design development"},
			PhaseIFP: {"ifp", "permit", "issued for permit"},
			PhaseIFC: {"ifc", "construction", "issued for construction"},
		},
		Bands: map[string]PhaseBand{
			PhaseSD:  {Min: 1, Max: 40},
			PhaseDD:  {Min: 41, Max: 89},
			PhaseIFP: {Min: 90, Max: 99},
			PhaseIFC: {Min: 100, Max: 100},
		},
	}
}

// ── 配置 Provider（TTL 缓存 + 失败回退）──

// PhaseConfigProvider 阶段映射配置提供者
type PhaseConfigProvider interface {
	Get(ctx context.Context) (*PhaseConfig, error)
	// Invalidate 显式失效缓存；配置变更路径在成功写库后立即调用
	Invalidate()
}

// cachedPhaseConfigProvider 带 TTL 记忆的 DB 配置提供者。
// 缓存填充 best-effort、可安全竞争（短 TTL 下 last-writer-wins 即可）
type cachedPhaseConfigProvider struct {
	repo repository.PhaseSettingRepository
	ttl  time.Duration

	mu        sync.Mutex
	cached    *PhaseConfig
	fetchedAt time.Time
}

// NewPhaseConfigProvider 创建带 TTL 缓存的配置提供者
func NewPhaseConfigProvider(repo repository.PhaseSettingRepository, ttl time.Duration) PhaseConfigProvider {
	return &cachedPhaseConfigProvider{repo: repo, ttl: ttl}
}

func (p *cachedPhaseConfigProvider) Get(ctx context.Context) (*PhaseConfig, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil && time.Since(p.fetchedAt) < p.ttl {
		return p.cached, nil
	}

	setting, err := p.repo.Get(ctx)
	if err != nil {
		// 全新安装尚无配置行：默认配置同样按 TTL 缓存，
		// 错误路径只留给真实的配置源故障
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cfg := DefaultPhaseConfig()
			p.cached = cfg
			p.fetchedAt = time.Now()
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultPhaseConfig()
	// 配置行按阶段覆盖默认值；缺失的阶段保留默认
	if len(setting.PhaseTokens) > 0 {
		var tokens map[string][]string
		if err := json.Unmarshal(setting.PhaseTokens, &tokens); err != nil {
			return nil, err
		}
		for phase, list := range tokens {
			cfg.Tokens[phase] = list
		}
	}
	if len(setting.PhaseBands) > 0 {
		var bands map[string]PhaseBand
		if err := json.Unmarshal(setting.PhaseBands, &bands); err != nil {
			return nil, err
		}
		for phase, band := range bands {
			cfg.Bands[phase] = band
		}
	}

	p.cached = cfg
	p.fetchedAt = time.Now()
	return cfg, nil
}

func (p *cachedPhaseConfigProvider) Invalidate() {
	p.mu.Lock()
	p.cached = nil
	p.mu.Unlock()
}

// ── 分类器 ──

// NormalizedDeliverable 分类输入：交付物归一化视图
type NormalizedDeliverable struct {
	WeekKey     string
	Percentage  *int
	Description string
	IsMonday    bool // 原始交付日期是否为周一
}

// NormalizeDeliverables 将交付物行归一化为分类输入；无日期的交付物不参与分类
func NormalizeDeliverables(deliverables []model.Deliverable) []NormalizedDeliverable {
	out := make([]NormalizedDeliverable, 0, len(deliverables))
	for _, d := range deliverables {
		if d.Date == nil {
			continue
		}
		out = append(out, NormalizedDeliverable{
			WeekKey:     WeekKey(*d.Date),
			Percentage:  d.Percentage,
			Description: d.Description,
			IsMonday:    d.Date.Weekday() == time.Monday,
		})
	}
	return out
}

// PhaseClassifier 交付阶段分类器
type PhaseClassifier struct {
	provider PhaseConfigProvider
	logger   *zap.Logger
}

// NewPhaseClassifier 创建 PhaseClassifier 实例
func NewPhaseClassifier(provider PhaseConfigProvider, logger *zap.Logger) *PhaseClassifier {
	return &PhaseClassifier{provider: provider, logger: logger}
}

// ClassifyWeek 判定目标周属于项目的哪个交付阶段。
// 配置提供者失败时回退硬编码默认值，分类不会因此失败
func (c *PhaseClassifier) ClassifyWeek(ctx context.Context, weekKey, projectStatus string, deliverables []NormalizedDeliverable) string {
	cfg, err := c.provider.Get(ctx)
	if err != nil {
		c.logger.Warn("阶段映射配置加载失败，使用默认配置", zap.Error(err))
		cfg = DefaultPhaseConfig()
	}
	return classifyWeek(weekKey, projectStatus, deliverables, cfg)
}

// classifyWeek 前向选择 + 周一例外 + 状态回退（纯函数）
func classifyWeek(weekKey, projectStatus string, deliverables []NormalizedDeliverable, cfg *PhaseConfig) string {
	sorted := make([]NormalizedDeliverable, len(deliverables))
	copy(sorted, deliverables)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].WeekKey < sorted[j].WeekKey
	})

	// 前向选择：第一个周键 ≥ 目标周的交付物
	// （ISO 日期字符串的字典序比较等价于日期比较）
	selected := -1
	for i, d := range sorted {
		if d.WeekKey >= weekKey {
			selected = i
			break
		}
	}

	// 周一例外：命中交付物原始日期为周一且恰为目标周、且存在后续交付物时，
	// 用后续交付物分类
	if selected >= 0 && sorted[selected].IsMonday && sorted[selected].WeekKey == weekKey && selected+1 < len(sorted) {
		selected++
	}

	// 目标周已过全部交付物
	if selected < 0 {
		if projectStatus == model.ProjectStatusActiveCA {
			return PhaseCA
		}
		if len(sorted) > 0 {
			return classifyDeliverable(sorted[len(sorted)-1], cfg)
		}
		return PhaseOther
	}

	return classifyDeliverable(sorted[selected], cfg)
}

// classifyDeliverable 按描述关键词、再按百分比区间归类单个交付物
func classifyDeliverable(d NormalizedDeliverable, cfg *PhaseConfig) string {
	desc := strings.ToLower(d.Description)

	// 字面子串优先级最高
	if strings.Contains(desc, "bulletin") || strings.Contains(desc, "addendum") {
		return PhaseBulletins
	}
	if strings.Contains(desc, "masterplan") || strings.Contains(desc, "master plan") {
		return PhaseMasterplan
	}

	// 按 SD → DD → IFP → IFC 顺序做关键词匹配
	for _, phase := range tokenPhaseOrder {
		for _, token := range cfg.Tokens[phase] {
			if tokenMatches(desc, strings.ToLower(token)) {
				return phase
			}
		}
	}

	// 关键词未命中则按百分比区间归类
	if d.Percentage != nil {
		p := *d.Percentage
		for _, phase := range tokenPhaseOrder {
			band, ok := cfg.Bands[phase]
			if !ok {
				continue
			}
			if p >= band.Min && p <= band.Max {
				return phase
			}
		}
	}

	return PhaseOther
}

// tokenMatches 短关键词按词边界匹配（避免 "sd" 误中 "hazards" 之类），
// 多词/长关键词按子串匹配
func tokenMatches(desc, token string) bool {
	if strings.Contains(token, " ") || len(token) > 4 {
		return strings.Contains(desc, token)
	}
	for _, word := range splitWords(desc) {
		if word == token {
			return true
		}
	}
	return false
}

// splitWords 按非字母数字切词
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
