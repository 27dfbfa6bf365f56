package model

// GAC 能力领域表 — 对应 gacs
type GAC struct {
	GACID       string `gorm:"column:gac_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"gac_id"`
	Number      int    `gorm:"not null;uniqueIndex"                                         json:"number"`
	Description string `gorm:"type:text;not null"                                           json:"description"`
	BaseModel
}

// TableName 指定表名
func (GAC) TableName() string { return "gacs" }

// RAC 学习成果项表 — 对应 racs
// 与 GAC、Subject 均为多对多（rac_gacs / subject_racs）
type RAC struct {
	RACID       string `gorm:"column:rac_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"rac_id"`
	Number      int    `gorm:"not null;uniqueIndex"                                         json:"number"`
	Description string `gorm:"type:text;not null"                                           json:"description"`
	BaseModel

	// 关联
	GACs []GAC `gorm:"many2many:rac_gacs;joinForeignKey:RacID;joinReferences:GacID" json:"gacs,omitempty"`
}

// TableName 指定表名
func (RAC) TableName() string { return "racs" }

// Subject 课程表 — 对应 subjects
type Subject struct {
	SubjectID   string `gorm:"column:subject_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"subject_id"`
	Name        string `gorm:"type:varchar(100);not null"                                       json:"name"`
	Description string `gorm:"type:text;not null;default:''"                                    json:"description"`
	BaseModel

	// 关联
	RACs       []RAC       `gorm:"many2many:subject_racs;joinForeignKey:SubjectID;joinReferences:RacID"            json:"racs,omitempty"`
	Professors []Professor `gorm:"many2many:subject_professors;joinForeignKey:SubjectID;joinReferences:ProfessorID" json:"professors,omitempty"`
}

// TableName 指定表名
func (Subject) TableName() string { return "subjects" }
