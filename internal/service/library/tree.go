package library

import (
	"context"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"valvx/internal/domain/models"
)

// GetTree builds the nested folder/PDF tree from two flat queries in a
// single grouping pass. Children and files are sorted by name and every
// folder carries its slash path and depth.
func (s *folderService) GetTree(ctx context.Context) (*models.Tree, error) {
	allFolders, err := s.folderRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	allPDFs, err := s.pdfRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	tree := BuildTree(allFolders, allPDFs, s.store.PublicURL)

	s.logger.Debug("folder tree built",
		"folder_count", len(allFolders),
		"pdf_count", len(allPDFs),
	)

	return tree, nil
}

// BuildTree nests folders by parent_id and attaches PDFs to their folder.
// Folders whose parent is missing are treated as top level.
func BuildTree(folders []models.Folder, pdfs []models.PDFDocument, publicURL func(string) string) *models.Tree {
	nodes := make(map[int64]*models.FolderTreeNode, len(folders))
	for _, f := range folders {
		nodes[f.ID] = &models.FolderTreeNode{
			ID:          f.ID,
			Name:        f.Name,
			Description: f.Description,
			ParentID:    f.ParentID,
			CreatedAt:   f.CreatedAt,
			Children:    []*models.FolderTreeNode{},
			Files:       []models.PDFTreeNode{},
		}
	}

	tree := &models.Tree{
		Folders: []*models.FolderTreeNode{},
		Files:   []models.PDFTreeNode{},
	}

	for _, f := range folders {
		node := nodes[f.ID]
		if f.ParentID != nil {
			if parent, ok := nodes[*f.ParentID]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		tree.Folders = append(tree.Folders, node)
	}

	for _, p := range pdfs {
		leaf := models.PDFTreeNode{
			UniqueID:    p.UniqueID,
			DisplayName: p.DisplayName,
			FolderID:    p.FolderID,
			Version:     p.Version,
			UploadedAt:  p.UploadedAt,
			URL:         publicURL(p.FilePath),
		}
		if p.FolderID != nil {
			if parent, ok := nodes[*p.FolderID]; ok {
				parent.Files = append(parent.Files, leaf)
				continue
			}
		}
		tree.Files = append(tree.Files, leaf)
	}

	sorter := newNameSorter()
	sorter.files(tree.Files)
	visited := make(map[int64]bool, len(nodes))
	finishLevel(tree.Folders, "", 0, sorter, visited)

	return tree
}

// finishLevel sorts a level, fills in path and level, and recurses. visited
// guards against parent cycles in corrupt data.
func finishLevel(level []*models.FolderTreeNode, parentPath string, depth int, sorter *nameSorter, visited map[int64]bool) {
	sorter.folders(level)
	for _, node := range level {
		if visited[node.ID] {
			node.Children = []*models.FolderTreeNode{}
			continue
		}
		visited[node.ID] = true

		node.Path = parentPath + "/" + node.Name
		node.Level = depth
		sorter.files(node.Files)
		finishLevel(node.Children, node.Path, depth+1, sorter, visited)
	}
}

// nameSorter orders names the way a Swedish-speaking user expects (å, ä, ö last).
type nameSorter struct {
	c *collate.Collator
}

func newNameSorter() *nameSorter {
	return &nameSorter{c: collate.New(language.Swedish, collate.IgnoreCase)}
}

func (s *nameSorter) folders(nodes []*models.FolderTreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return s.c.CompareString(nodes[i].Name, nodes[j].Name) < 0
	})
}

func (s *nameSorter) files(files []models.PDFTreeNode) {
	sort.SliceStable(files, func(i, j int) bool {
		return s.c.CompareString(files[i].DisplayName, files[j].DisplayName) < 0
	})
}
