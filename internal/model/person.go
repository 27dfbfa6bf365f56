package model

// 学生注册状态
const (
	StudentStatusPreEnrolled = "prematricula"
	StudentStatusEnrolled    = "matriculado"
)

// Student 学生表 — 对应 students
type Student struct {
	StudentID string `gorm:"column:student_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	Document  string `gorm:"type:varchar(20);not null;uniqueIndex"                            json:"document"`
	Name      string `gorm:"type:varchar(100);not null"                                       json:"name"`
	Email     string `gorm:"type:varchar(255);not null"                                       json:"email"`
	Group     string `gorm:"column:group_name;type:varchar(50);not null"                      json:"group"`
	Status    string `gorm:"type:varchar(15);not null;default:'prematricula'"                 json:"status"`
	BaseModel
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

// IsEnrolled 是否已正式注册（只有已注册学生可被评分）
func (s *Student) IsEnrolled() bool { return s.Status == StudentStatusEnrolled }

// Professor 教师表 — 对应 professors
type Professor struct {
	ProfessorID string `gorm:"column:professor_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"professor_id"`
	IDNumber    string `gorm:"column:id_number;type:varchar(20);not null;uniqueIndex"              json:"id_number"`
	Name        string `gorm:"type:varchar(100);not null"                                         json:"name"`
	Email       string `gorm:"type:varchar(255);not null;uniqueIndex"                             json:"email"`
	IsActive    bool   `gorm:"not null;default:true"                                              json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Professor) TableName() string { return "professors" }
